package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"chimera/internal/flora/models"
	"chimera/internal/flora/ports/mocks"
	"chimera/internal/platform/metrics"
	"chimera/pkg/platform/sentinel"
)

type CoordinatorSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	structured  *mocks.MockStructuredStore
	documents   *mocks.MockDocumentStore
	emitter     *mocks.MockOutcomeEmitter
	metrics     *metrics.Metrics
	logs        *bytes.Buffer
	coordinator *Coordinator
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.structured = mocks.NewMockStructuredStore(s.ctrl)
	s.documents = mocks.NewMockDocumentStore(s.ctrl)
	s.emitter = mocks.NewMockOutcomeEmitter(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.logs = &bytes.Buffer{}
	s.coordinator = New(s.structured, s.documents, s.emitter,
		WithLogger(slog.New(slog.NewTextHandler(s.logs, nil))),
		WithMetrics(s.metrics),
	)
}

func record() models.Record {
	return models.Record{
		UserID:         "user-1",
		CommonName:     "Rose",
		ScientificName: "Rosa rubiginosa",
		Type:           models.PostTypePublic,
		Description:    "Sweet briar",
		Origin:         "Europe",
	}
}

func (s *CoordinatorSuite) TestCreate_Success() {
	ctx := context.Background()
	rec := record()
	row := models.ToStructuredRow(rec)
	row.ID = "id-1"

	gomock.InOrder(
		s.structured.EXPECT().Create(gomock.Any(), models.ToStructuredRow(rec)).Return(row, nil),
		s.documents.EXPECT().Insert(gomock.Any(), models.ToDocument("id-1", rec)).Return(nil),
		s.emitter.EXPECT().Emit(gomock.Any(), models.Succeeded(models.KindCreated, models.CodeCreated, "id-1")).Return(nil),
	)

	res := s.coordinator.Create(ctx, rec)
	s.Require().True(res.IsOK())
	s.Equal("id-1", res.Record.ID)
	s.Equal("Sweet briar", res.Record.Description)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.WritesTotal.WithLabelValues("create", "ok")))
}

func (s *CoordinatorSuite) TestCreate_StructuredFailureSkipsDocumentAndCompensation() {
	boom := errors.New("pg down")
	s.structured.EXPECT().Create(gomock.Any(), gomock.Any()).Return(models.StructuredRow{}, boom)
	s.emitter.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e models.OutcomeEvent) error {
		s.Equal(models.KindCreated, e.Kind)
		s.Equal(models.StatusError, e.Status)
		s.Equal(models.CodeFailed, e.Code)
		return nil
	})

	res := s.coordinator.Create(context.Background(), record())
	s.Require().True(res.IsFailed())
	s.ErrorIs(res.Err, ErrStructuredStore)
	s.ErrorIs(res.Err, boom)
}

func (s *CoordinatorSuite) TestCreate_DocumentFailureCompensatesOnce() {
	boom := errors.New("mongo down")
	row := models.ToStructuredRow(record())
	row.ID = "id-2"

	gomock.InOrder(
		s.structured.EXPECT().Create(gomock.Any(), gomock.Any()).Return(row, nil),
		s.documents.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(boom),
		s.structured.EXPECT().Delete(gomock.Any(), "id-2").Return(nil).Times(1),
		s.emitter.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e models.OutcomeEvent) error {
			s.Equal(models.StatusError, e.Status)
			s.Equal(models.CodeFailed, e.Code)
			s.Contains(e.Payload, "mongo down")
			return nil
		}),
	)

	res := s.coordinator.Create(context.Background(), record())
	s.Require().True(res.IsFailed())
	s.ErrorIs(res.Err, ErrDocumentStore)
	s.ErrorIs(res.Err, boom)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CompensationsTotal.WithLabelValues("deleted")))
}

func (s *CoordinatorSuite) TestCreate_CompensationFailureIsLoggedNotRetried() {
	row := models.ToStructuredRow(record())
	row.ID = "id-3"

	s.structured.EXPECT().Create(gomock.Any(), gomock.Any()).Return(row, nil)
	s.documents.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("mongo down"))
	s.structured.EXPECT().Delete(gomock.Any(), "id-3").Return(errors.New("pg down")).Times(1)
	s.emitter.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

	res := s.coordinator.Create(context.Background(), record())
	s.Require().True(res.IsFailed())
	s.ErrorContains(res.Err, "mongo down", "original document error is reported")
	s.Contains(s.logs.String(), "orphan=true")
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CompensationsTotal.WithLabelValues("orphaned")))
}

func (s *CoordinatorSuite) TestCreate_EmitFailureDoesNotChangeResult() {
	row := models.ToStructuredRow(record())
	row.ID = "id-4"

	s.structured.EXPECT().Create(gomock.Any(), gomock.Any()).Return(row, nil)
	s.documents.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
	s.emitter.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("broker gone"))

	res := s.coordinator.Create(context.Background(), record())
	s.True(res.IsOK())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.OutcomeEmitFailures))
}

func (s *CoordinatorSuite) TestUpdate_Success() {
	rec := record()
	row := models.ToStructuredRow(rec)
	row.ID = "id-5"
	doc := models.ToDocument("id-5", rec)

	s.structured.EXPECT().Update(gomock.Any(), "id-5", models.ToStructuredRow(rec)).Return(row, nil)
	s.documents.EXPECT().Update(gomock.Any(), doc).Return(doc, nil)
	s.emitter.EXPECT().Emit(gomock.Any(), models.Succeeded(models.KindUpdated, models.CodeUpdated, "id-5")).Return(nil)

	res := s.coordinator.Update(context.Background(), "id-5", rec)
	s.Require().True(res.IsOK())
	s.Equal("id-5", res.Record.ID)
}

func (s *CoordinatorSuite) TestUpdate_UnknownIDNeverTouchesDocuments() {
	s.structured.EXPECT().Update(gomock.Any(), "missing", gomock.Any()).
		Return(models.StructuredRow{}, sentinel.ErrNotFound)
	s.emitter.EXPECT().Emit(gomock.Any(), models.OutcomeEvent{
		Kind:    models.KindUpdated,
		Status:  models.StatusError,
		Code:    models.CodeNotFound,
		Payload: "flora missing not found",
	}).Return(nil)

	res := s.coordinator.Update(context.Background(), "missing", record())
	s.Require().True(res.IsNotFound())
	s.ErrorIs(res.Err, sentinel.ErrNotFound)
}

func (s *CoordinatorSuite) TestUpdate_MissingDocumentKeepsStructuredUpdate() {
	row := models.ToStructuredRow(record())
	row.ID = "id-6"

	s.structured.EXPECT().Update(gomock.Any(), "id-6", gomock.Any()).Return(row, nil)
	s.documents.EXPECT().Update(gomock.Any(), gomock.Any()).Return(models.Document{}, sentinel.ErrNotFound)
	s.structured.EXPECT().Delete(gomock.Any(), gomock.Any()).Times(0)
	s.emitter.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e models.OutcomeEvent) error {
		s.Equal(models.KindUpdated, e.Kind)
		s.Equal(models.CodeFailed, e.Code)
		return nil
	})

	res := s.coordinator.Update(context.Background(), "id-6", record())
	s.Require().True(res.IsFailed())
	s.ErrorIs(res.Err, ErrDocumentStore)
	s.ErrorIs(res.Err, sentinel.ErrNotFound)
}

func (s *CoordinatorSuite) TestGet_OrphanIsNotFound() {
	s.structured.EXPECT().FindByID(gomock.Any(), "id-7").Return(models.StructuredRow{ID: "id-7"}, nil)
	s.documents.EXPECT().FindByFloraID(gomock.Any(), "id-7").Return(models.Document{}, sentinel.ErrNotFound)

	res := s.coordinator.Get(context.Background(), "id-7")
	s.True(res.IsNotFound())
}

func (s *CoordinatorSuite) TestGet_DocumentFailureIsFailed() {
	s.structured.EXPECT().FindByID(gomock.Any(), "id-8").Return(models.StructuredRow{ID: "id-8"}, nil)
	s.documents.EXPECT().FindByFloraID(gomock.Any(), "id-8").Return(models.Document{}, errors.New("timeout"))

	res := s.coordinator.Get(context.Background(), "id-8")
	s.True(res.IsFailed())
	s.ErrorIs(res.Err, ErrDocumentStore)
}

func (s *CoordinatorSuite) TestList_SkipsOrphans() {
	s.structured.EXPECT().List(gomock.Any()).Return([]models.StructuredRow{{ID: "a"}, {ID: "b"}}, nil)
	s.documents.EXPECT().FindByFloraID(gomock.Any(), "a").Return(models.Document{}, sentinel.ErrNotFound)
	s.documents.EXPECT().FindByFloraID(gomock.Any(), "b").Return(models.Document{FloraID: "b", Origin: "Peru"}, nil)

	records, err := s.coordinator.List(context.Background())
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal("b", records[0].ID)
	s.Equal("Peru", records[0].Origin)
}
