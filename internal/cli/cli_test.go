package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/fleetdesk/internal/app"
	"github.com/MrJamesThe3rd/fleetdesk/internal/auth"
	"github.com/MrJamesThe3rd/fleetdesk/internal/cli"
)

func noBackend(context.Context) (*app.Services, func() error, error) {
	return nil, nil, errors.New("backend not available")
}

func run(t *testing.T, open cli.Opener, args ...string) (string, error) {
	t.Helper()

	cmd := cli.NewRootCommand(open)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func golden(t *testing.T) *goldie.Goldie {
	t.Helper()

	return goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
}

func TestSchedule(t *testing.T) {
	out, err := run(t, noBackend,
		"schedule", "--total", "12000", "--rate", "0.12", "--installments", "4", "--emi", "3100", "--start", "2024-01-31")
	require.NoError(t, err)

	golden(t).Assert(t, "schedule", []byte(out))
}

func TestSchedule_JSON(t *testing.T) {
	out, err := run(t, noBackend,
		"--format", "json", "schedule", "--total", "1200", "--installments", "2", "--start", "2024-01-15")
	require.NoError(t, err)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "600.00", entries[0]["principal"])
	assert.Equal(t, "2024-02-15", entries[1]["due_date"])
	assert.Equal(t, "0.00", entries[1]["outstanding"])
}

func TestSchedule_Invalid(t *testing.T) {
	type testCase struct {
		name string
		args []string
	}

	tests := []testCase{
		{name: "Bad Total", args: []string{"--total", "abc", "--installments", "4", "--start", "2024-01-01"}},
		{name: "Bad Start", args: []string{"--total", "100", "--installments", "4", "--start", "01/01/2024"}},
		{name: "No Installments", args: []string{"--total", "100", "--installments", "0", "--start", "2024-01-01"}},
		{name: "Missing Flag", args: []string{"--total", "100"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, noBackend, append([]string{"schedule"}, tt.args...)...)
			assert.Error(t, err)
		})
	}
}

func TestRules(t *testing.T) {
	out, err := run(t, noBackend, "rules")
	require.NoError(t, err)

	golden(t).Assert(t, "rules", []byte(out))
}

func TestRules_MissingFile(t *testing.T) {
	_, err := run(t, noBackend, "rules", "--file", "testdata/missing.yaml")
	assert.Error(t, err)
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, noBackend, "--format", "xml", "rules")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestMigrate(t *testing.T) {
	closed := false
	open := func(context.Context) (*app.Services, func() error, error) {
		return &app.Services{}, func() error { closed = true; return nil }, nil
	}

	out, err := run(t, open, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "schema is up to date\n", out)
	assert.True(t, closed)

	_, err = run(t, noBackend, "migrate")
	assert.EqualError(t, err, "backend not available")
}

func TestUserCreate(t *testing.T) {
	companyID := uuid.New()

	type testCase struct {
		name      string
		args      []string
		setupMock func(m *auth.MockRepository)
		want      string
		wantErr   bool
	}

	tests := []testCase{
		{
			name: "Operator",
			args: []string{"user", "create", "--company", "Acme", "--email", "ops@acme.example", "--password", "correct horse"},
			setupMock: func(m *auth.MockRepository) {
				m.EXPECT().GetCompanyByName(gomock.Any(), "Acme").Return(&auth.Company{ID: companyID, Name: "Acme"}, nil)
				m.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(nil)
			},
			want: "created operator ops@acme.example in Acme\n",
		},
		{
			name: "JSON",
			args: []string{"--format", "json", "user", "create", "--company", "Acme", "--email", "boss@acme.example",
				"--role", "admin", "--password", "correct horse"},
			setupMock: func(m *auth.MockRepository) {
				m.EXPECT().GetCompanyByName(gomock.Any(), "Acme").Return(&auth.Company{ID: companyID, Name: "Acme"}, nil)
				m.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(nil)
			},
			want: "\"role\": \"admin\"",
		},
		{
			name:    "Short Password",
			args:    []string{"user", "create", "--company", "Acme", "--email", "ops@acme.example", "--password", "short"},
			wantErr: true,
		},
		{
			name:    "Missing Email",
			args:    []string{"user", "create", "--company", "Acme"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := auth.NewMockRepository(ctrl)

			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			open := func(context.Context) (*app.Services, func() error, error) {
				svc := auth.NewService(repo, auth.NewMockSessionStore(ctrl), "secret", time.Hour)
				return &app.Services{Auth: svc}, func() error { return nil }, nil
			}

			out, err := run(t, open, tt.args...)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestSummary_InvalidIDs(t *testing.T) {
	_, err := run(t, noBackend, "summary", "--company", "nope", "--vehicle", uuid.NewString())
	assert.ErrorContains(t, err, "--company")

	_, err = run(t, noBackend, "summary", "--company", uuid.NewString(), "--vehicle", "nope")
	assert.ErrorContains(t, err, "--vehicle")
}
