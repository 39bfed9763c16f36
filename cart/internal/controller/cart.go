package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/shopcart/cart/internal/common/otel"
	"github.com/Alturino/shopcart/cart/internal/repository"
	"github.com/Alturino/shopcart/cart/internal/service"
	"github.com/Alturino/shopcart/cart/pkg/request"
	"github.com/Alturino/shopcart/internal/auth"
	inErrors "github.com/Alturino/shopcart/internal/errors"
	inHttp "github.com/Alturino/shopcart/internal/http"
	"github.com/Alturino/shopcart/internal/log"
	"github.com/Alturino/shopcart/internal/middleware"
	"github.com/Alturino/shopcart/internal/validate"
)

type CartController struct {
	service  service.CartService
	validate *validator.Validate
}

// AttachCartController mounts the cart routes on router. User and merge
// routes require a bearer token when secretKey is set.
func AttachCartController(router *mux.Router, service service.CartService, secretKey string) {
	controller := CartController{
		service:  service,
		validate: validate.New(),
	}

	cart := router.PathPrefix("/cart").Subrouter()

	guest := cart.PathPrefix("/guest").Subrouter()
	guest.HandleFunc("", controller.CreateGuestCart).Methods(http.MethodPost)
	guest.HandleFunc("/{guestId}", controller.GetGuestCart).Methods(http.MethodGet)
	guest.HandleFunc("/{guestId}", controller.UpdateGuestCart).Methods(http.MethodPut)

	user := cart.PathPrefix("/user").Subrouter()
	user.Use(middleware.Auth(secretKey))
	user.HandleFunc("/{userId}", controller.GetUserCart).Methods(http.MethodGet)
	user.HandleFunc("/{userId}", controller.UpdateUserCart).Methods(http.MethodPut)
	user.HandleFunc("/{userId}", controller.DeleteUserCart).Methods(http.MethodDelete)

	merge := cart.PathPrefix("/merge").Subrouter()
	merge.Use(middleware.Auth(secretKey))
	merge.HandleFunc("", controller.MergeCart).Methods(http.MethodPost)
}

func statusCodeFromError(err error) int {
	switch {
	case errors.Is(err, inErrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, inErrors.ErrCartNotFound), errors.Is(err, inErrors.ErrCartExpired):
		return http.StatusNotFound
	case errors.Is(err, inErrors.ErrUserMismatch):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func messageFromError(err error) string {
	switch {
	case errors.Is(err, inErrors.ErrCartExpired):
		return inErrors.ErrCartExpired.Error()
	case errors.Is(err, inErrors.ErrCartNotFound):
		return inErrors.ErrCartNotFound.Error()
	case errors.Is(err, inErrors.ErrUserMismatch):
		return inErrors.ErrUserMismatch.Error()
	case errors.Is(err, inErrors.ErrValidation):
		return err.Error()
	default:
		return inHttp.MessageInternalServer
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	inHttp.WriteFailed(r.Context(), w, statusCodeFromError(err), messageFromError(err))
}

func (t CartController) decode(r *http.Request, logger zerolog.Logger, body interface{}) error {
	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	logger.Trace().Msg("decoding request body")
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		err = inErrors.Validation("failed decoding request body with error=%s", err.Error())
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "validating request body").Logger()
	logger.Trace().Msg("validating request body")
	if err := t.validate.StructCtx(r.Context(), body); err != nil {
		err = inErrors.Validation("failed validating request body with error=%s", err.Error())
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("validated request body")
	return nil
}

func (t CartController) CreateGuestCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController CreateGuestCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController CreateGuestCart").
		Logger()
	r = r.WithContext(c)

	reqBody := request.CreateGuestCart{}
	if err := t.decode(r, logger, &reqBody); err != nil {
		inErrors.HandleError(err, span)
		writeError(w, r, err)
		return
	}
	items := repository.ItemsFromRequest(reqBody.Items)
	if items == nil {
		items = []repository.CartItem{}
	}

	logger = logger.With().
		Str(log.KeyGuestID, reqBody.GuestID).
		Str(log.KeyProcess, "creating guest cart").
		Logger()
	logger.Info().Msg("creating guest cart")
	c = logger.WithContext(c)
	cart, err := t.service.CreateGuestCart(c, reqBody.GuestID, items)
	if err != nil {
		err = fmt.Errorf("failed creating guest cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(w, r, err)
		return
	}
	logger.Info().Msg("created guest cart")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusCreated,
		"message":    "successfully created guest cart",
		"data": map[string]interface{}{
			"cart": cart.Response(),
		},
	})
}

func (t CartController) GetGuestCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController GetGuestCart")
	defer span.End()

	pathValues := mux.Vars(r)
	guestID := pathValues["guestId"]
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController GetGuestCart").
		Str(log.KeyGuestID, guestID).
		Str(log.KeyProcess, "finding guest cart").
		Logger()

	logger.Info().Msg("finding guest cart")
	c = logger.WithContext(c)
	cart, err := t.service.GetGuestCart(c, guestID)
	if err != nil {
		err = fmt.Errorf("failed finding guest cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(w, r.WithContext(c), err)
		return
	}
	logger.Info().Msg("found guest cart")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusOK,
		"message":    fmt.Sprintf("guestId=%s cart found", guestID),
		"data": map[string]interface{}{
			"cart": cart.Response(),
		},
	})
}

func (t CartController) UpdateGuestCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController UpdateGuestCart")
	defer span.End()

	guestID := mux.Vars(r)["guestId"]
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController UpdateGuestCart").
		Str(log.KeyGuestID, guestID).
		Logger()
	r = r.WithContext(c)

	reqBody := request.UpdateCart{}
	if err := t.decode(r, logger, &reqBody); err != nil {
		inErrors.HandleError(err, span)
		writeError(w, r, err)
		return
	}

	logger = logger.With().
		Int(log.KeyCartItemsCount, len(reqBody.Items)).
		Str(log.KeyProcess, "updating guest cart").
		Logger()
	logger.Info().Msg("updating guest cart")
	c = logger.WithContext(c)
	cart, err := t.service.UpdateGuestCart(c, guestID, repository.ItemsFromRequest(reqBody.Items))
	if err != nil {
		err = fmt.Errorf("failed updating guest cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(w, r, err)
		return
	}
	logger.Info().Msg("updated guest cart")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusOK,
		"message":    "successfully updated guest cart",
		"data": map[string]interface{}{
			"cart": cart.Response(),
		},
	})
}

func (t CartController) GetUserCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController GetUserCart")
	defer span.End()

	userID := mux.Vars(r)["userId"]
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController GetUserCart").
		Str(log.KeyUserID, userID).
		Logger()
	r = r.WithContext(c)

	if err := auth.AuthorizeUser(c, userID); err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(w, r, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "finding user cart").Logger()
	logger.Info().Msg("finding user cart")
	c = logger.WithContext(c)
	userCart, err := t.service.GetUserCart(c, userID)
	if err != nil {
		err = fmt.Errorf("failed finding user cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(w, r, err)
		return
	}
	logger.Info().Bool("persisted", userCart.Persisted).Msg("found user cart")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusOK,
		"message":    fmt.Sprintf("userId=%s cart found", userID),
		"data": map[string]interface{}{
			"cart":      userCart.Cart.Response(),
			"persisted": userCart.Persisted,
		},
	})
}

func (t CartController) UpdateUserCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController UpdateUserCart")
	defer span.End()

	userID := mux.Vars(r)["userId"]
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController UpdateUserCart").
		Str(log.KeyUserID, userID).
		Logger()
	r = r.WithContext(c)

	if err := auth.AuthorizeUser(c, userID); err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(w, r, err)
		return
	}

	reqBody := request.UpdateCart{}
	if err := t.decode(r, logger, &reqBody); err != nil {
		inErrors.HandleError(err, span)
		writeError(w, r, err)
		return
	}

	logger = logger.With().
		Int(log.KeyCartItemsCount, len(reqBody.Items)).
		Str(log.KeyProcess, "updating user cart").
		Logger()
	logger.Info().Msg("updating user cart")
	c = logger.WithContext(c)
	cart, err := t.service.UpdateUserCart(c, userID, repository.ItemsFromRequest(reqBody.Items))
	if err != nil {
		err = fmt.Errorf("failed updating user cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(w, r, err)
		return
	}
	logger.Info().Msg("updated user cart")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusOK,
		"message":    "successfully updated user cart",
		"data": map[string]interface{}{
			"cart": cart.Response(),
		},
	})
}

func (t CartController) DeleteUserCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController DeleteUserCart")
	defer span.End()

	userID := mux.Vars(r)["userId"]
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController DeleteUserCart").
		Str(log.KeyUserID, userID).
		Logger()
	r = r.WithContext(c)

	if err := auth.AuthorizeUser(c, userID); err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(w, r, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "emptying user cart").Logger()
	logger.Info().Msg("emptying user cart")
	c = logger.WithContext(c)
	cart, err := t.service.DeleteUserCart(c, userID)
	if err != nil {
		err = fmt.Errorf("failed emptying user cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(w, r, err)
		return
	}
	logger.Info().Msg("emptied user cart")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusOK,
		"message":    "successfully emptied user cart",
		"data": map[string]interface{}{
			"cart": cart.Response(),
		},
	})
}

func (t CartController) MergeCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController MergeCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController MergeCart").
		Logger()
	r = r.WithContext(c)

	reqBody := request.MergeCart{}
	if err := t.decode(r, logger, &reqBody); err != nil {
		inErrors.HandleError(err, span)
		writeError(w, r, err)
		return
	}
	logger = logger.With().
		Str(log.KeyGuestID, reqBody.GuestID).
		Str(log.KeyUserID, reqBody.UserID).
		Logger()

	if err := auth.AuthorizeUser(c, reqBody.UserID); err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(w, r, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "merging carts").Logger()
	logger.Info().Msg("merging carts")
	c = logger.WithContext(c)
	result, err := t.service.MergeCart(c, reqBody.GuestID, reqBody.UserID)
	if err != nil {
		err = fmt.Errorf("failed merging carts with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(w, r, err)
		return
	}
	logger.Info().Int(log.KeyMergedCount, result.MergedCount).Msg("merged carts")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusOK,
		"message":    result.Message,
		"data": map[string]interface{}{
			"cart":        result.Cart.Response(),
			"mergedCount": result.MergedCount,
		},
	})
}
