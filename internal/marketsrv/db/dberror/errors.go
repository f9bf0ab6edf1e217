package dberror

import (
	"net/http"

	"github.com/veristream/veristream-internal/internal/common/apperrors"
)

var (
	ErrDatabase            apperrors.Error = apperrors.New("db error").SetStatusCode(http.StatusInternalServerError)
	ErrAlreadyExists       apperrors.Error = ErrDatabase.New("already exists").SetStatusCode(http.StatusConflict)
	ErrNotFound            apperrors.Error = ErrDatabase.New("not found").SetStatusCode(http.StatusNotFound)
	ErrInvalidInput        apperrors.Error = ErrDatabase.New("invalid input").SetStatusCode(http.StatusBadRequest)
	ErrNotOwner            apperrors.Error = ErrDatabase.New("caller does not own the record").SetStatusCode(http.StatusForbidden)
	ErrActiveLicenses      apperrors.Error = ErrDatabase.New("content has active licenses").SetStatusCode(http.StatusConflict)
	ErrConflictingLedgerID apperrors.Error = ErrDatabase.New("record already anchored with a different ledger id").SetStatusCode(http.StatusConflict)
)
