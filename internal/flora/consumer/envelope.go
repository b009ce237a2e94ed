package consumer

import (
	"encoding/json"
	"errors"
	"fmt"

	"chimera/internal/flora/models"
	"chimera/internal/platform/rabbitmq"
)

// Command names carried in the envelope pattern.
const (
	CmdAddFlora    = "add_flora"
	CmdUpdateFlora = "update_flora"
)

var (
	// ErrSerialization marks a message body that cannot be decoded into a
	// command. Such messages are poison and are not requeued.
	ErrSerialization = errors.New("malformed command message")
	// ErrUnknownCommand marks a well-formed envelope naming no known command.
	ErrUnknownCommand = fmt.Errorf("unknown command: %w", ErrSerialization)
)

// routingKeyCommands resolves a command from the AMQP routing key when the
// envelope carries no pattern.
var routingKeyCommands = map[string]string{
	CmdAddFlora:    CmdAddFlora,
	"flora.create": CmdAddFlora,
	CmdUpdateFlora: CmdUpdateFlora,
	"flora.update": CmdUpdateFlora,
}

type envelope struct {
	Pattern *struct {
		Cmd string `json:"cmd"`
	} `json:"pattern"`
	Data json.RawMessage `json:"data"`
}

// payload is the flora body published by the upstream gateway. Image arrives
// base64 encoded.
type payload struct {
	ID             string          `json:"ID"`
	CommonName     string          `json:"CommonName"`
	ScientificName string          `json:"ScientificName"`
	UserID         string          `json:"UserId"`
	Type           models.PostType `json:"Type"`
	Image          []byte          `json:"Image"`
	Description    string          `json:"Description"`
	Origin         string          `json:"Origin"`
	OtherDetails   map[string]any  `json:"OtherDetails"`
}

func (p payload) record() models.Record {
	return models.Record{
		ID:             p.ID,
		UserID:         p.UserID,
		CommonName:     p.CommonName,
		ScientificName: p.ScientificName,
		Type:           p.Type,
		Image:          p.Image,
		Description:    p.Description,
		Origin:         p.Origin,
		OtherDetails:   p.OtherDetails,
	}
}

// Command is a decoded inbound write.
type Command struct {
	Name   string
	Record models.Record
}

// Decode parses a delivery into a Command.
func Decode(d rabbitmq.Delivery) (Command, error) {
	var env envelope
	if err := json.Unmarshal(d.Body, &env); err != nil {
		return Command{}, fmt.Errorf("%w: %w", ErrSerialization, err)
	}

	var name string
	if env.Pattern != nil && env.Pattern.Cmd != "" {
		name = env.Pattern.Cmd
	} else {
		name = routingKeyCommands[d.RoutingKey]
	}
	if name != CmdAddFlora && name != CmdUpdateFlora {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return Command{}, fmt.Errorf("%w: missing data", ErrSerialization)
	}
	var p payload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		return Command{}, fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	if p.Type != "" && !p.Type.IsValid() {
		return Command{}, fmt.Errorf("%w: invalid type %q", ErrSerialization, p.Type)
	}
	if name == CmdUpdateFlora && p.ID == "" {
		return Command{}, fmt.Errorf("%w: update without id", ErrSerialization)
	}
	return Command{Name: name, Record: p.record()}, nil
}
