package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapDBError(t *testing.T) {
	assert.NoError(t, MapDBError(nil))

	assert.True(t, IsNotFound(MapDBError(fmt.Errorf("scan: %w", sql.ErrNoRows))))
	assert.Equal(t, ErrCodeTimeout, GetCode(MapDBError(context.DeadlineExceeded)))
	assert.Equal(t, ErrCodeCanceled, GetCode(MapDBError(context.Canceled)))

	unique := MapDBError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ColumnName: "owner_id"})
	assert.True(t, IsConflict(unique))
	assert.Equal(t, "owner_id", GetField(unique))

	check := MapDBError(&pgconn.PgError{Code: pgerrcode.CheckViolation})
	assert.True(t, IsValidation(check))

	down := MapDBError(&pgconn.PgError{Code: pgerrcode.CannotConnectNow})
	assert.True(t, IsUnavailable(down))

	other := MapDBError(&pgconn.PgError{Code: pgerrcode.DivisionByZero})
	assert.Equal(t, ErrCodeInternal, GetCode(other))

	plain := errors.New("plain")
	assert.Equal(t, plain, MapDBError(plain))
}
