package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/payment"
	"storefront/internal/service"
	"storefront/internal/upstream"
	"storefront/internal/util"
)

// writeError maps domain and upstream errors to a status and JSON body.
func writeError(c *gin.Context, err error) {
	var (
		noEligible *checkout.NoEligibleItemsError
		statusErr  *upstream.StatusError
		gatewayErr *payment.GatewayError
	)

	switch {
	case errors.As(err, &noEligible):
		c.JSON(http.StatusConflict, gin.H{
			"error":             "No eligible items to check out",
			"details":           err.Error(),
			"excluded_products": noEligible.ExcludedNames,
		})

	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidPrice),
		errors.Is(err, cart.ErrMissingProductID),
		errors.Is(err, catalog.ErrPageOutOfRange),
		errors.Is(err, catalog.ErrInvalidPageSize):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})

	case errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrSettlementNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "details": err.Error()})

	case errors.Is(err, service.ErrCheckoutInProgress),
		errors.Is(err, service.ErrSettlementFailed):
		c.JSON(http.StatusConflict, gin.H{"error": "Conflict", "details": err.Error()})

	case errors.Is(err, upstream.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "details": err.Error()})

	case errors.As(err, &statusErr), errors.As(err, &gatewayErr),
		errors.Is(err, upstream.ErrUnavailable), errors.Is(err, payment.ErrUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Upstream request failed", "details": err.Error()})

	default:
		util.GetLogger().Error("Unhandled request error",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error", "details": err.Error()})
	}
}
