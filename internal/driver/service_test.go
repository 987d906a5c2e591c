package driver_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/fleetdesk/internal/driver"
)

func TestService_Create(t *testing.T) {
	company := uuid.New()

	type testCase struct {
		name      string
		params    driver.Params
		setupMock func(m *driver.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name:   "Success",
			params: driver.Params{Name: " Ravi Kumar ", Email: "ravi@example.com", Phone: "+91 98765 43210"},
			setupMock: func(m *driver.MockRepository) {
				m.EXPECT().
					CreateDriver(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, d *driver.Driver) error {
						assert.Equal(t, "Ravi Kumar", d.Name)
						assert.True(t, d.Active)
						d.ID = uuid.New()

						return nil
					})
			},
		},
		{
			name:    "Missing Name",
			params:  driver.Params{Email: "ravi@example.com"},
			wantErr: driver.ErrInvalidDriver,
		},
		{
			name:    "Bad Email",
			params:  driver.Params{Name: "Ravi", Email: "not-an-email"},
			wantErr: driver.ErrInvalidDriver,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := driver.NewMockRepository(ctrl)

			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			got, err := driver.NewService(repo).Create(context.Background(), company, tt.params)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, company, got.CompanyID)
		})
	}
}

func TestService_SetActive(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := driver.NewMockRepository(ctrl)

	company, id := uuid.New(), uuid.New()

	repo.EXPECT().GetDriver(gomock.Any(), company, id).Return(&driver.Driver{ID: id, CompanyID: company, Active: true}, nil)
	repo.EXPECT().UpdateDriver(gomock.Any(), gomock.Any()).Return(nil)

	got, err := driver.NewService(repo).SetActive(context.Background(), company, id, false)
	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestService_Update_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := driver.NewMockRepository(ctrl)

	company, id := uuid.New(), uuid.New()
	repo.EXPECT().GetDriver(gomock.Any(), company, id).Return(nil, driver.ErrNotFound)

	_, err := driver.NewService(repo).Update(context.Background(), company, id, driver.Params{Name: "X"})
	assert.ErrorIs(t, err, driver.ErrNotFound)
}
