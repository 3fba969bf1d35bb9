package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// CloserMock is a mock implementation of di.Closer.
type CloserMock struct {
	mock.Mock
}

func (m *CloserMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// NewCloserMock returns a CloserMock that expects Close to be called once and returns err.
func NewCloserMock(err error) *CloserMock {
	m := &CloserMock{}
	m.On("Close", mock.Anything).Return(err).Once()
	return m
}

// CloseRecorder appends its name to a shared slice when closed.
// It is used to check the order services are closed in.
type CloseRecorder struct {
	Name  string
	Order *[]string
}

func (r *CloseRecorder) Close() {
	*r.Order = append(*r.Order, r.Name)
}
