package service

import (
	"context"

	"lendhub/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) FetchUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *mockGateway) FetchResources(ctx context.Context) ([]models.Resource, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Resource), args.Error(1)
}

func (m *mockGateway) FetchLoans(ctx context.Context) ([]models.Loan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Loan), args.Error(1)
}

func (m *mockGateway) FetchReservations(ctx context.Context) ([]models.Reservation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Reservation), args.Error(1)
}

func (m *mockGateway) FetchMeetings(ctx context.Context) ([]models.Meeting, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Meeting), args.Error(1)
}

func (m *mockGateway) FetchCategories(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *mockGateway) FetchAreas(ctx context.Context) ([]models.Area, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Area), args.Error(1)
}

func (m *mockGateway) FetchGrades(ctx context.Context) ([]models.Grade, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Grade), args.Error(1)
}

func (m *mockGateway) FetchHours(ctx context.Context) ([]models.PedagogicalHour, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PedagogicalHour), args.Error(1)
}

func (m *mockGateway) FetchSettings(ctx context.Context) ([]models.AppSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AppSettings), args.Error(1)
}

// CreateLoan accepts either a fixed *models.LoanUpdate or a
// func(*models.Loan) *models.LoanUpdate return value, since the service
// generates the loan id and the expected update cannot be precomputed.
func (m *mockGateway) CreateLoan(ctx context.Context, loan *models.Loan) (*models.LoanUpdate, error) {
	args := m.Called(ctx, loan)
	switch v := args.Get(0).(type) {
	case func(*models.Loan) *models.LoanUpdate:
		return v(loan), args.Error(1)
	case *models.LoanUpdate:
		return v, args.Error(1)
	default:
		return nil, args.Error(1)
	}
}

func (m *mockGateway) UpdateLoanStatus(ctx context.Context, id string, status string) (*models.LoanUpdate, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoanUpdate), args.Error(1)
}

func (m *mockGateway) ProcessReturn(ctx context.Context, id string, reports models.ReturnReports) (*models.LoanUpdate, error) {
	args := m.Called(ctx, id, reports)
	switch v := args.Get(0).(type) {
	case func(models.ReturnReports) *models.LoanUpdate:
		return v(reports), args.Error(1)
	case *models.LoanUpdate:
		return v, args.Error(1)
	default:
		return nil, args.Error(1)
	}
}

// CreateReservation accepts a fixed *models.Reservation or a
// func(*models.Reservation) *models.Reservation return value.
func (m *mockGateway) CreateReservation(ctx context.Context, r *models.Reservation) (*models.Reservation, error) {
	args := m.Called(ctx, r)
	switch v := args.Get(0).(type) {
	case func(*models.Reservation) *models.Reservation:
		return v(r), args.Error(1)
	case *models.Reservation:
		return v, args.Error(1)
	default:
		return nil, args.Error(1)
	}
}

func (m *mockGateway) UpdateReservationStatus(ctx context.Context, id string, status string) (*models.Reservation, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *mockGateway) CreateResource(ctx context.Context, r *models.Resource) (*models.Resource, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Resource), args.Error(1)
}

func (m *mockGateway) UpdateResource(ctx context.Context, r *models.Resource) (*models.Resource, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Resource), args.Error(1)
}

func (m *mockGateway) DeleteResource(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
