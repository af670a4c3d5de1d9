package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/sbilibin2017/localbite/internal/hasher"
	"github.com/sbilibin2017/localbite/internal/models"
	"github.com/sbilibin2017/localbite/internal/repositories"
	"github.com/sbilibin2017/localbite/internal/services"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Register(t *testing.T) {
	createdUser := &models.User{
		ID:        "u-1",
		Username:  "Jane",
		Email:     "jane@x.com",
		CreatedAt: time.Now(),
	}

	tests := []struct {
		name    string
		email   string
		setup   func(r *services.MockUserReader, w *services.MockUserWriter, h *services.MockPasswordHasher, k *services.MockKafkaWriter)
		wantErr error
		anyErr  bool
	}{
		{
			name:  "successful registration",
			email: "jane@x.com",
			setup: func(r *services.MockUserReader, w *services.MockUserWriter, h *services.MockPasswordHasher, k *services.MockKafkaWriter) {
				r.EXPECT().FindByEmail(gomock.Any(), "jane@x.com").Return(nil, nil)
				h.EXPECT().Hash("secret1").Return("hashed", nil)
				w.EXPECT().Create(gomock.Any(), "Jane", "jane@x.com", "hashed").Return(createdUser, nil)
				k.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name:  "email is normalized",
			email: "  Jane@X.com ",
			setup: func(r *services.MockUserReader, w *services.MockUserWriter, h *services.MockPasswordHasher, k *services.MockKafkaWriter) {
				r.EXPECT().FindByEmail(gomock.Any(), "jane@x.com").Return(nil, nil)
				h.EXPECT().Hash("secret1").Return("hashed", nil)
				w.EXPECT().Create(gomock.Any(), "Jane", "jane@x.com", "hashed").Return(createdUser, nil)
				k.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name:  "user already exists",
			email: "jane@x.com",
			setup: func(r *services.MockUserReader, w *services.MockUserWriter, h *services.MockPasswordHasher, k *services.MockKafkaWriter) {
				r.EXPECT().FindByEmail(gomock.Any(), "jane@x.com").Return(createdUser, nil)
			},
			wantErr: services.ErrDuplicateAccount,
		},
		{
			name:  "lost race on create",
			email: "jane@x.com",
			setup: func(r *services.MockUserReader, w *services.MockUserWriter, h *services.MockPasswordHasher, k *services.MockKafkaWriter) {
				r.EXPECT().FindByEmail(gomock.Any(), "jane@x.com").Return(nil, nil)
				h.EXPECT().Hash("secret1").Return("hashed", nil)
				w.EXPECT().Create(gomock.Any(), "Jane", "jane@x.com", "hashed").Return(nil, repositories.ErrAlreadyExists)
			},
			wantErr: services.ErrDuplicateAccount,
		},
		{
			name:  "reader unavailable",
			email: "jane@x.com",
			setup: func(r *services.MockUserReader, w *services.MockUserWriter, h *services.MockPasswordHasher, k *services.MockKafkaWriter) {
				r.EXPECT().FindByEmail(gomock.Any(), "jane@x.com").
					Return(nil, repositories.ErrStoreUnavailable)
			},
			wantErr: repositories.ErrStoreUnavailable,
		},
		{
			name:  "hash error",
			email: "jane@x.com",
			setup: func(r *services.MockUserReader, w *services.MockUserWriter, h *services.MockPasswordHasher, k *services.MockKafkaWriter) {
				r.EXPECT().FindByEmail(gomock.Any(), "jane@x.com").Return(nil, nil)
				h.EXPECT().Hash("secret1").Return("", errors.New("hash error"))
			},
			anyErr: true,
		},
		{
			name:  "writer unavailable",
			email: "jane@x.com",
			setup: func(r *services.MockUserReader, w *services.MockUserWriter, h *services.MockPasswordHasher, k *services.MockKafkaWriter) {
				r.EXPECT().FindByEmail(gomock.Any(), "jane@x.com").Return(nil, nil)
				h.EXPECT().Hash("secret1").Return("hashed", nil)
				w.EXPECT().Create(gomock.Any(), "Jane", "jane@x.com", "hashed").
					Return(nil, repositories.ErrStoreUnavailable)
			},
			wantErr: repositories.ErrStoreUnavailable,
		},
		{
			name:  "kafka failure does not fail registration",
			email: "jane@x.com",
			setup: func(r *services.MockUserReader, w *services.MockUserWriter, h *services.MockPasswordHasher, k *services.MockKafkaWriter) {
				r.EXPECT().FindByEmail(gomock.Any(), "jane@x.com").Return(nil, nil)
				h.EXPECT().Hash("secret1").Return("hashed", nil)
				w.EXPECT().Create(gomock.Any(), "Jane", "jane@x.com", "hashed").Return(createdUser, nil)
				k.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(errors.New("kafka error"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockReader := services.NewMockUserReader(ctrl)
			mockWriter := services.NewMockUserWriter(ctrl)
			mockHasher := services.NewMockPasswordHasher(ctrl)
			mockJWT := services.NewMockJWTGenerator(ctrl)
			mockKafka := services.NewMockKafkaWriter(ctrl)
			tt.setup(mockReader, mockWriter, mockHasher, mockKafka)

			svc := services.NewAuthService(mockReader, mockWriter, mockHasher, mockJWT, mockKafka)

			err := svc.Register(context.Background(), " Jane ", tt.email, "secret1")
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, services.ErrDuplicateAccount)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestAuthService_Register_PublishesEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockReader := services.NewMockUserReader(ctrl)
	mockWriter := services.NewMockUserWriter(ctrl)
	mockKafka := services.NewMockKafkaWriter(ctrl)

	mockReader.EXPECT().FindByEmail(gomock.Any(), "jane@x.com").Return(nil, nil)
	mockWriter.EXPECT().Create(gomock.Any(), "Jane", "jane@x.com", gomock.Any()).
		Return(&models.User{ID: "u-1", Username: "Jane", Email: "jane@x.com", CreatedAt: time.Unix(1700000000, 0)}, nil)

	var got kafka.Message
	mockKafka.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, msgs ...kafka.Message) error {
			require.Len(t, msgs, 1)
			got = msgs[0]
			return nil
		})

	svc := services.NewAuthService(mockReader, mockWriter, hasher.NewBcrypt(4), nil, mockKafka)
	require.NoError(t, svc.Register(context.Background(), "Jane", "jane@x.com", "secret1"))

	assert.Equal(t, "u-1", string(got.Key))
	assert.JSONEq(t,
		`{"user_id":"u-1","username":"Jane","email":"jane@x.com","timestamp":1700000000}`,
		string(got.Value))
	assert.NotContains(t, string(got.Value), "secret1")
}

func TestAuthService_Register_NilKafkaWriter(t *testing.T) {
	repo := repositories.NewUserMemoryRepository()
	svc := services.NewAuthService(repo, repo, hasher.NewBcrypt(4), nil, nil)

	assert.NotPanics(t, func() {
		assert.NoError(t, svc.Register(context.Background(), "Jane", "jane@x.com", "secret1"))
	})
}

func TestAuthService_Login(t *testing.T) {
	h := hasher.NewBcrypt(4)
	hashed, err := h.Hash("secret")
	require.NoError(t, err)

	user := &models.User{ID: "u-1", Username: "Jane", Email: "jane@x.com", PasswordHash: hashed}

	tests := []struct {
		name      string
		email     string
		password  string
		user      *models.User
		readerErr error
		expectJWT bool
		jwtErr    error
		wantErr   error
		anyErr    bool
	}{
		{
			name:      "successful login",
			email:     "jane@x.com",
			password:  "secret",
			user:      user,
			expectJWT: true,
		},
		{
			name:      "normalized email",
			email:     " JANE@x.com",
			password:  "secret",
			user:      user,
			expectJWT: true,
		},
		{
			name:     "user does not exist",
			email:    "jane@x.com",
			password: "secret",
			wantErr:  services.ErrInvalidCredentials,
		},
		{
			name:     "invalid password",
			email:    "jane@x.com",
			password: "wrongpass",
			user:     user,
			wantErr:  services.ErrInvalidCredentials,
		},
		{
			name:     "corrupted hash",
			email:    "jane@x.com",
			password: "secret",
			user:     &models.User{ID: "u-2", Email: "jane@x.com", PasswordHash: "plain"},
			anyErr:   true,
		},
		{
			name:      "reader error",
			email:     "jane@x.com",
			password:  "secret",
			readerErr: repositories.ErrStoreUnavailable,
			wantErr:   repositories.ErrStoreUnavailable,
		},
		{
			name:      "JWT generation error",
			email:     "jane@x.com",
			password:  "secret",
			user:      user,
			expectJWT: true,
			jwtErr:    errors.New("jwt error"),
			anyErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockReader := services.NewMockUserReader(ctrl)
			mockJWT := services.NewMockJWTGenerator(ctrl)
			svc := services.NewAuthService(mockReader, nil, h, mockJWT, nil)

			mockReader.EXPECT().FindByEmail(gomock.Any(), "jane@x.com").Return(tt.user, tt.readerErr)
			if tt.expectJWT {
				mockJWT.EXPECT().Generate(gomock.Any(), "u-1", "jane@x.com").Return("token123", tt.jwtErr)
			}

			res, err := svc.Login(context.Background(), tt.email, tt.password)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
			case tt.anyErr:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, services.ErrInvalidCredentials)
				assert.Nil(t, res)
			default:
				require.NoError(t, err)
				assert.Equal(t, "token123", res.Token)
				assert.Equal(t, models.PublicUser{ID: "u-1", Name: "Jane", Email: "jane@x.com"}, res.User)
			}
		})
	}
}
