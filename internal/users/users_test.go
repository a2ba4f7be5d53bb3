package users

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestInsertUser_DefaultsRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	conf, err := NewConf(db)
	require.NoError(t, err)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(sqlmock.AnyArg(), "Asha", "asha@example.com", sqlmock.AnyArg(), "customer").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	user, err := conf.InsertUser(context.Background(), NewUser{
		FullName: "Asha",
		Email:    "asha@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "customer", user.Role)
	assert.NotEmpty(t, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthenticate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	conf, err := NewConf(db)
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	now := time.Now()
	userRow := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"id", "full_name", "email", "password_hash", "role", "created_at", "updated_at",
		}).AddRow("user-1", "Asha", "asha@example.com", string(hash), "customer", now, now)
	}

	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs("asha@example.com").
		WillReturnRows(userRow())

	user, err := conf.Authenticate(context.Background(), "asha@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs("asha@example.com").
		WillReturnRows(userRow())

	_, err = conf.Authenticate(context.Background(), "asha@example.com", "wrong horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthenticate_UnknownEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	conf, err := NewConf(db)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "full_name", "email", "password_hash", "role", "created_at", "updated_at",
		}))

	_, err = conf.Authenticate(context.Background(), "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.NoError(t, mock.ExpectationsWereMet())
}
