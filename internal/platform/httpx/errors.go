package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/moneta-app/moneta/internal/ledger"
)

// RespondError maps ledger errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, ledger.ErrTransactionNotFound),
		errors.Is(err, ledger.ErrTransactionTypeNotFound),
		errors.Is(err, ledger.ErrTagNotFound),
		errors.Is(err, ledger.ErrCurrencyNotFound),
		errors.Is(err, ledger.ErrCreditNotFound),
		errors.Is(err, ledger.ErrDepositNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ledger.ErrReservedTransactionChange),
		errors.Is(err, ledger.ErrCreditAlreadyClosed),
		errors.Is(err, ledger.ErrDepositAlreadyClosed),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrAccountInUse):
		Problem(w, http.StatusUnprocessableEntity, "Unprocessable", err.Error())
	case errors.Is(err, ledger.ErrEmptyUpdate),
		errors.Is(err, ledger.ErrInvalidAmount):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.As(err, &verrs):
		Problem(w, http.StatusBadRequest, "Validation Failed", verrs.Error())
	case errors.Is(err, ledger.ErrExchangeUnavailable):
		Problem(w, http.StatusBadGateway, "Exchange Unavailable", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
