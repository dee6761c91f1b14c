package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"tokenvault/internal/platform/middleware"
	"tokenvault/internal/vault/handler/mocks"
	"tokenvault/internal/vault/models"
	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
)

type VaultHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestVaultHandlerSuite(t *testing.T) {
	suite.Run(t, new(VaultHandlerSuite))
}

func (s *VaultHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.router = chi.NewRouter()
	New(s.service, logger, nil).Register(s.router)
}

func (s *VaultHandlerSuite) do(method, path, body string, clientID string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if clientID != "" {
		req.Header.Set(middleware.ClientIDHeader, clientID)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *VaultHandlerSuite) decode(w *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func (s *VaultHandlerSuite) TestCreateAccount() {
	accountID := id.AccountID(uuid.New())

	s.Run("new account is 201", func() {
		s.service.EXPECT().CreateAccount(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, req *models.CreateAccountRequest) (*models.CreateAccountResult, error) {
				s.Equal("4111111111111111", req.AccountNumber)
				s.Equal(id.ClientID(7), req.ClientID)
				s.Equal(models.Generated{}, req.TokenSource)
				return &models.CreateAccountResult{AccountID: accountID, Token: "tok", NewAccountCreated: true}, nil
			})

		w := s.do(http.MethodPost, "/v1/accounts",
			`{"account_number":"4111111111111111","expiration_date":"12/30","holder_email":"a@b.com"}`, "7")

		s.Equal(http.StatusCreated, w.Code)
		body := s.decode(w)
		s.Equal("tok", body["token"])
		s.Equal(true, body["new_account_created"])
		s.Equal(accountID.String(), body["account_id"])
	})

	s.Run("existing account is 200 and external token is forwarded", func() {
		s.service.EXPECT().CreateAccount(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, req *models.CreateAccountRequest) (*models.CreateAccountResult, error) {
				s.Equal(models.CallerSupplied{Value: "ext_token_0123456789"}, req.TokenSource)
				return &models.CreateAccountResult{AccountID: accountID, Token: "tok", NewAccountCreated: false}, nil
			})

		w := s.do(http.MethodPost, "/v1/accounts",
			`{"account_number":"4111111111111111","external_token":"ext_token_0123456789"}`, "7")

		s.Equal(http.StatusOK, w.Code)
		s.Equal(false, s.decode(w)["new_account_created"])
	})

	s.Run("invalid card brand is 422", func() {
		s.service.EXPECT().CreateAccount(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInvalidCardBrand, "card brand is not supported"))

		w := s.do(http.MethodPost, "/v1/accounts", `{"account_number":"9999999999999999"}`, "7")

		s.Equal(http.StatusUnprocessableEntity, w.Code)
		s.Equal("invalid_card_brand", s.decode(w)["error"])
	})

	s.Run("infrastructure fault hides cause", func() {
		s.service.EXPECT().CreateAccount(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.Wrap(errors.New("pq: connection refused"), dErrors.CodeFailedToTokenize, "failed to tokenize account"))

		w := s.do(http.MethodPost, "/v1/accounts", `{"account_number":"4111111111111111"}`, "7")

		s.Equal(http.StatusInternalServerError, w.Code)
		s.NotContains(w.Body.String(), "connection refused")
	})

	s.Run("malformed body is 400 without calling service", func() {
		w := s.do(http.MethodPost, "/v1/accounts", `{"account_number":`, "7")
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("oversized account number is 400 without calling service", func() {
		body := `{"account_number":"` + strings.Repeat("4", maxAccountNumberInput+1) + `"}`
		w := s.do(http.MethodPost, "/v1/accounts", body, "7")

		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal("validation_error", s.decode(w)["error"])
	})

	s.Run("twenty digit account number reaches the service", func() {
		s.service.EXPECT().CreateAccount(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, req *models.CreateAccountRequest) (*models.CreateAccountResult, error) {
				s.Equal("41111111111111111111", req.AccountNumber)
				return &models.CreateAccountResult{AccountID: accountID, Token: "tok", NewAccountCreated: true}, nil
			})

		w := s.do(http.MethodPost, "/v1/accounts", `{"account_number":"41111111111111111111"}`, "7")
		s.Equal(http.StatusCreated, w.Code)
	})

	s.Run("missing client id is 400", func() {
		w := s.do(http.MethodPost, "/v1/accounts", `{"account_number":"4111111111111111"}`, "")
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *VaultHandlerSuite) TestUpdateAccount() {
	s.Run("token comes from the path", func() {
		s.service.EXPECT().UpdateAccount(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, req *models.UpdateAccountRequest) (string, error) {
				s.Equal("tok", req.Token)
				s.Equal(id.ClientID(7), req.ClientID)
				return "tok", nil
			})

		w := s.do(http.MethodPut, "/v1/accounts/tok", `{"account_number":"4111111111111111"}`, "7")

		s.Equal(http.StatusOK, w.Code)
		s.Equal("tok", s.decode(w)["token"])
	})

	s.Run("collision is 409", func() {
		s.service.EXPECT().UpdateAccount(gomock.Any(), gomock.Any()).
			Return("", dErrors.New(dErrors.CodeAccountAlreadyExists, "another token already owns this account number"))

		w := s.do(http.MethodPut, "/v1/accounts/tok", `{"account_number":"4111111111111111"}`, "7")

		s.Equal(http.StatusConflict, w.Code)
	})

	s.Run("unknown token is 404", func() {
		s.service.EXPECT().UpdateAccount(gomock.Any(), gomock.Any()).
			Return("", dErrors.New(dErrors.CodeAccountNotFound, "account not found"))

		w := s.do(http.MethodPut, "/v1/accounts/nope", `{"account_number":"4111111111111111"}`, "7")

		s.Equal(http.StatusNotFound, w.Code)
	})
}

func (s *VaultHandlerSuite) TestFindToken() {
	s.Run("found", func() {
		s.service.EXPECT().FindToken(gomock.Any(), "4111111111111111", id.ClientID(7)).Return("tok", nil)

		w := s.do(http.MethodPost, "/v1/tokens/search", `{"account_number":"4111111111111111"}`, "7")

		s.Equal(http.StatusOK, w.Code)
		s.Equal("tok", s.decode(w)["token"])
	})

	s.Run("invalid account number is 400", func() {
		s.service.EXPECT().FindToken(gomock.Any(), "123", id.ClientID(7)).
			Return("", dErrors.New(dErrors.CodeInvalidAccountNumber, "account number is too short"))

		w := s.do(http.MethodPost, "/v1/tokens/search", `{"account_number":"123"}`, "7")

		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal("invalid_account_number", s.decode(w)["error"])
	})

	s.Run("not found is 404", func() {
		s.service.EXPECT().FindToken(gomock.Any(), "4111111111111111", id.ClientID(8)).
			Return("", dErrors.New(dErrors.CodeTokenNotFound, "token not found"))

		w := s.do(http.MethodPost, "/v1/tokens/search", `{"account_number":"4111111111111111"}`, "8")

		s.Equal(http.StatusNotFound, w.Code)
	})
}

func (s *VaultHandlerSuite) TestResolveToken() {
	accountID := id.AccountID(uuid.New())
	s.service.EXPECT().ResolveToken(gomock.Any(), "tok", id.ClientID(7)).Return(&models.ResolvedAccount{
		AccountID:      accountID,
		Token:          "tok",
		AccountNumber:  "4111111111111111",
		ExpirationDate: "12/30",
		HolderEmail:    "a@b.com",
		CardBinID:      1,
	}, nil)

	w := s.do(http.MethodGet, "/v1/accounts/tok", "", "7")

	s.Equal(http.StatusOK, w.Code)
	body := s.decode(w)
	s.Equal("4111111111111111", body["account_number"])
	s.Equal(float64(1), body["card_bin_id"])
}

func (s *VaultHandlerSuite) TestDisableAccount() {
	s.Run("disabled", func() {
		s.service.EXPECT().DisableAccount(gomock.Any(), "tok", id.ClientID(7)).Return(nil)

		w := s.do(http.MethodDelete, "/v1/accounts/tok", "", "7")

		s.Equal(http.StatusNoContent, w.Code)
	})

	s.Run("already disabled is 404", func() {
		s.service.EXPECT().DisableAccount(gomock.Any(), "tok", id.ClientID(7)).
			Return(dErrors.New(dErrors.CodeAccountNotFound, "account not found"))

		w := s.do(http.MethodDelete, "/v1/accounts/tok", "", "7")

		s.Equal(http.StatusNotFound, w.Code)
	})
}

func TestResolveGuardOnlyWrapsResolution(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	router := chi.NewRouter()
	New(service, logger, nil, WithResolveGuard(deny)).Register(router)

	service.EXPECT().DisableAccount(gomock.Any(), "tok", id.ClientID(7)).Return(nil)

	for _, tc := range []struct {
		method string
		want   int
	}{
		{http.MethodGet, http.StatusTooManyRequests},
		{http.MethodDelete, http.StatusNoContent},
	} {
		req := httptest.NewRequest(tc.method, "/v1/accounts/tok", nil)
		req.Header.Set(middleware.ClientIDHeader, "7")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.method, tc.want, w.Code)
		}
	}
}
