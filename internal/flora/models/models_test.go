package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() Record {
	return Record{
		ID:             "ignored-on-create",
		UserID:         "user-1",
		CommonName:     "Rose",
		ScientificName: "Rosa rubiginosa",
		Type:           PostTypePublic,
		Image:          []byte{0x1, 0x2, 0x3},
		Description:    "Sweet briar",
		Origin:         "Europe",
		OtherDetails:   map[string]any{"colour": "pink"},
	}
}

func TestMapping_SplitAndMergeRoundTrip(t *testing.T) {
	rec := sampleRecord()

	row := ToStructuredRow(rec)
	assert.Empty(t, row.ID, "structured store assigns the id")
	row.ID = "generated-id"

	doc := ToDocument(row.ID, rec)
	assert.Equal(t, "generated-id", doc.FloraID)

	merged := Merge(row, doc)
	want := rec
	want.ID = "generated-id"
	assert.Equal(t, want, merged)
}

func TestMapping_DoesNotAliasInput(t *testing.T) {
	rec := sampleRecord()
	doc := ToDocument("id", rec)

	rec.Image[0] = 0xff
	rec.OtherDetails["colour"] = "red"

	assert.Equal(t, byte(0x1), doc.Image[0])
	assert.Equal(t, "pink", doc.OtherDetails["colour"])
}

func TestMapping_NilCollectionsStayNil(t *testing.T) {
	doc := ToDocument("id", Record{})
	assert.Nil(t, doc.Image)
	assert.Nil(t, doc.OtherDetails)
}

func TestPostType_IsValid(t *testing.T) {
	assert.True(t, PostTypePublic.IsValid())
	assert.True(t, PostTypePrivate.IsValid())
	assert.False(t, PostType("secret").IsValid())
}

func TestOutcomeEvent_WireShape(t *testing.T) {
	tests := []struct {
		name  string
		event OutcomeEvent
		want  string
	}{
		{
			name:  "create success",
			event: Succeeded(KindCreated, CodeCreated, "abc"),
			want:  `{"type":"POST","status":"success","code":201,"data":"abc"}`,
		},
		{
			name:  "update failure",
			event: Errored(KindUpdated, CodeFailed, errors.New("mongo down")),
			want:  `{"type":"PUT","status":"error","code":500,"data":"mongo down"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := json.Marshal(tt.event)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(body))

			decoded, err := DecodeOutcome(body)
			require.NoError(t, err)
			assert.Equal(t, tt.event, decoded)
		})
	}
}

func TestDecodeOutcome_RejectsUnknownType(t *testing.T) {
	_, err := DecodeOutcome([]byte(`{"type":"PATCH","status":"success","code":200,"data":"x"}`))
	assert.Error(t, err)
}

func TestResult_Tags(t *testing.T) {
	assert.True(t, OK(Record{ID: "1"}).IsOK())
	assert.True(t, NotFound(errors.New("missing")).IsNotFound())
	assert.True(t, Failed(errors.New("boom")).IsFailed())
	assert.Equal(t, "not_found", OutcomeNotFound.String())
}
