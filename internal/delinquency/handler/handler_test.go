package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"arrears/internal/delinquency/handler/mocks"
	"arrears/internal/delinquency/models"
	"arrears/internal/delinquency/service"
	"arrears/internal/delinquency/validator"
	id "arrears/pkg/domain"
	dErrors "arrears/pkg/domain-errors"
	"arrears/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/delinquency-mocks.go -package=mocks Service
type DelinquencyHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
	loanID  id.LoanID
}

func TestDelinquencyHandlerSuite(t *testing.T) {
	suite.Run(t, new(DelinquencyHandlerSuite))
}

func (s *DelinquencyHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.router = chi.NewRouter()
	New(s.service, logger).Register(s.router)
	s.loanID = id.NewLoanID()
}

func (s *DelinquencyHandlerSuite) actionsPath() string {
	return "/loans/" + s.loanID.String() + "/delinquency/actions"
}

func sept(day int) time.Time {
	return models.NewDate(2022, time.September, day)
}

func (s *DelinquencyHandlerSuite) TestCreatePause() {
	start, end := sept(9), sept(19)
	created := &models.Entry{
		ID:        id.NewEntryID(),
		LoanID:    s.loanID,
		Action:    models.ActionPause,
		StartDate: start,
		EndDate:   &end,
		CreatedAt: time.Date(2022, 9, 9, 10, 0, 0, 0, time.UTC),
	}
	s.service.EXPECT().
		CreateAction(gomock.Any(), s.loanID, service.CreateActionRequest{
			Action: "pause", StartDate: &start, EndDate: &end,
		}).
		Return(created, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, s.actionsPath(), map[string]string{
		"action":     "pause",
		"startDate":  "09 September 2022",
		"endDate":    "19 September 2022",
		"dateFormat": "dd MMMM yyyy",
		"locale":     "en",
	})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	resp := testutil.UnmarshalResponse[ActionResponse](s.T(), rr)
	s.Equal(created.ID.String(), resp.ID)
	s.Equal("pause", resp.Action)
	s.Equal("2022-09-09", resp.StartDate)
	s.Require().NotNil(resp.EndDate)
	s.Equal("2022-09-19", *resp.EndDate)
}

func (s *DelinquencyHandlerSuite) TestCreateResumeWithDefaultFormat() {
	start := sept(9)
	s.service.EXPECT().
		CreateAction(gomock.Any(), s.loanID, service.CreateActionRequest{Action: "resume", StartDate: &start}).
		Return(&models.Entry{ID: id.NewEntryID(), LoanID: s.loanID, Action: models.ActionResume, StartDate: start}, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, s.actionsPath(), map[string]string{
		"action":    "resume",
		"startDate": "2022-09-09",
	})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	resp := testutil.UnmarshalResponse[ActionResponse](s.T(), rr)
	s.Nil(resp.EndDate)
}

func (s *DelinquencyHandlerSuite) TestCreateRendersEveryViolation() {
	s.service.EXPECT().
		CreateAction(gomock.Any(), s.loanID, gomock.Any()).
		Return(nil, &validator.ValidationError{Violations: []validator.Violation{
			{Kind: validator.KindInvalidLoanState, Message: "Delinquency actions can be created only for active loans"},
			{Kind: validator.KindOverlapping, Message: "Delinquency pause period cannot overlap with another pause period"},
		}})

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, s.actionsPath(), map[string]string{
		"action": "pause", "startDate": "2022-09-09", "endDate": "2022-09-15",
	})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	resp := testutil.UnmarshalResponse[ValidationErrorResponse](s.T(), rr)
	s.Require().Len(resp.Errors, 2)
	s.Equal(validator.KindInvalidLoanState, resp.Errors[0].Kind)
	s.Equal(validator.KindOverlapping, resp.Errors[1].Kind)
}

func (s *DelinquencyHandlerSuite) TestCreateRejectsBeforeCallingService() {
	tests := []struct {
		name string
		req  func() *http.Request
		code string
	}{
		{
			name: "malformed body",
			req: func() *http.Request {
				return testutil.NewRequestWithBody(s.T(), http.MethodPost, s.actionsPath(), "{")
			},
			code: "bad_request",
		},
		{
			name: "date not matching format",
			req: func() *http.Request {
				return testutil.NewJSONRequest(s.T(), http.MethodPost, s.actionsPath(), map[string]string{
					"action": "pause", "startDate": "09/09/2022", "endDate": "2022-09-19",
				})
			},
			code: "validation_error",
		},
		{
			name: "unsupported locale",
			req: func() *http.Request {
				return testutil.NewJSONRequest(s.T(), http.MethodPost, s.actionsPath(), map[string]string{
					"action": "pause", "startDate": "2022-09-09", "locale": "fr",
				})
			},
			code: "validation_error",
		},
		{
			name: "invalid loan id",
			req: func() *http.Request {
				return testutil.NewJSONRequest(s.T(), http.MethodPost, "/loans/nope/delinquency/actions", map[string]string{
					"action": "pause",
				})
			},
			code: "invalid_input",
		},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			rr := testutil.DoRequest(s.router, tt.req())
			testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, tt.code)
		})
	}
}

func (s *DelinquencyHandlerSuite) TestServiceErrorsMapToStatus() {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unknown loan", dErrors.New(dErrors.CodeNotFound, "loan not found"), http.StatusNotFound, "not_found"},
		{"lock timeout", dErrors.New(dErrors.CodeTimeout, "transaction aborted"), http.StatusGatewayTimeout, "timeout"},
		{"store failure", errors.New("connection reset"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.service.EXPECT().ListActions(gomock.Any(), s.loanID).Return(nil, tt.err)

			rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, s.actionsPath()))
			testutil.AssertStatusAndError(s.T(), rr, tt.status, tt.code)
		})
	}
}

func (s *DelinquencyHandlerSuite) TestListActions() {
	end := sept(15)
	s.service.EXPECT().ListActions(gomock.Any(), s.loanID).Return([]models.Entry{
		{ID: id.NewEntryID(), LoanID: s.loanID, Action: models.ActionPause, StartDate: sept(5), EndDate: &end},
		{ID: id.NewEntryID(), LoanID: s.loanID, Action: models.ActionResume, StartDate: sept(9)},
	}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, s.actionsPath()))

	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[ActionsResponse](s.T(), rr)
	s.Require().Len(resp.Actions, 2)
	s.Equal("pause", resp.Actions[0].Action)
	s.Equal("resume", resp.Actions[1].Action)
}

func (s *DelinquencyHandlerSuite) TestPausePeriods() {
	s.service.EXPECT().PausePeriods(gomock.Any(), s.loanID).Return([]models.PausePeriod{
		{StartDate: sept(5), EndDate: sept(9), Active: true},
	}, nil)

	path := "/loans/" + s.loanID.String() + "/delinquency/pause-periods"
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, path))

	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[PausePeriodsResponse](s.T(), rr)
	s.Equal(s.loanID.String(), resp.LoanID)
	s.Require().Len(resp.PausePeriods, 1)
	s.Equal(PausePeriodResponse{StartDate: "2022-09-05", EndDate: "2022-09-09", Active: true}, resp.PausePeriods[0])
}

func (s *DelinquencyHandlerSuite) TestBatchPausePeriods() {
	other := id.NewLoanID()
	s.service.EXPECT().
		PausePeriodsForLoans(gomock.Any(), []id.LoanID{s.loanID, other}).
		DoAndReturn(func(_ context.Context, ids []id.LoanID) (map[id.LoanID][]models.PausePeriod, error) {
			return map[id.LoanID][]models.PausePeriod{
				ids[0]: {{StartDate: sept(5), EndDate: sept(15)}},
			}, nil
		})

	path := "/delinquency/pause-periods?loan_id=" + s.loanID.String() + "," + other.String() + "&loan_id=" + s.loanID.String()
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, path))

	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[BatchPausePeriodsResponse](s.T(), rr)
	s.Require().Len(resp.Loans, 2)
	s.Len(resp.Loans[0].PausePeriods, 1)
	s.Equal(other.String(), resp.Loans[1].LoanID)
	s.Empty(resp.Loans[1].PausePeriods)
}

func (s *DelinquencyHandlerSuite) TestBatchPausePeriodsRequiresLoanIDs() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/delinquency/pause-periods"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
}
