package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v78"

	"github.com/razberry-fun/razberry-api/internal/config"
	"github.com/razberry-fun/razberry-api/internal/models"
)

func newBillingTestRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewBillingHandler(nil, cfg, nil)

	router := gin.New()
	router.POST("/api/stripe/checkout", func(c *gin.Context) {
		c.Set("profile", models.Profile{Email: "test@example.com"})
		c.Set("profile_id", uint(1))
	}, handler.Checkout)
	router.POST("/api/stripe/webhook", handler.Webhook)
	return router
}

func billingTestConfig() *config.Config {
	return &config.Config{
		AppURL:                  "https://razberry.example",
		StripeSecretKey:         "sk_test_unused",
		StripeWebhookSecret:     "whsec_test",
		StripePriceBasicMonthly: "price_basic_m",
		StripePriceBasicAnnual:  "price_basic_a",
		StripePriceProMonthly:   "price_pro_m",
		StripePriceProAnnual:    "price_pro_a",
	}
}

func TestCheckoutRejectsUnknownPlan(t *testing.T) {
	router := newBillingTestRouter(billingTestConfig())

	body := `{"plan":"platinum","billingPeriod":"monthly"}`
	req := httptest.NewRequest(http.MethodPost, "/api/stripe/checkout", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Unknown plan or billing period", resp["error"])
}

func TestCheckoutRejectsUnknownBillingPeriod(t *testing.T) {
	router := newBillingTestRouter(billingTestConfig())

	body := `{"plan":"basic","billingPeriod":"weekly"}`
	req := httptest.NewRequest(http.MethodPost, "/api/stripe/checkout", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutRejectsMalformedBody(t *testing.T) {
	router := newBillingTestRouter(billingTestConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/stripe/checkout", bytes.NewBufferString(`{broken`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	router := newBillingTestRouter(billingTestConfig())

	payload := `{"type":"checkout.session.completed"}`
	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", bytes.NewBufferString(payload))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Invalid signature", resp["error"])
}

func TestCheckoutProfileID(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    uint
		wantErr bool
	}{
		{"numeric id", "42", 42, false},
		{"missing metadata", "", 0, true},
		{"non-numeric", "abc", 0, true},
		{"negative", "-1", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &stripe.CheckoutSession{
				Metadata: map[string]string{"profileId": tt.raw},
			}
			got, err := checkoutProfileID(sess)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckoutCompletedColumns(t *testing.T) {
	sess := &stripe.CheckoutSession{
		Metadata:     map[string]string{"plan": "pro", "billingPeriod": "annual"},
		Customer:     &stripe.Customer{ID: "cus_123"},
		Subscription: &stripe.Subscription{ID: "sub_456"},
	}

	updates := checkoutCompletedColumns(sess)

	assert.Equal(t, "active", updates["subscription_status"])
	assert.Equal(t, "pro", updates["subscription_plan"])
	assert.Equal(t, "annual", updates["subscription_period"])
	assert.Equal(t, "cus_123", updates["stripe_customer_id"])
	assert.Equal(t, "sub_456", updates["stripe_subscription_id"])
}

func TestCheckoutCompletedColumnsWithoutExpandedObjects(t *testing.T) {
	sess := &stripe.CheckoutSession{
		Metadata: map[string]string{"plan": "basic", "billingPeriod": "monthly"},
	}

	updates := checkoutCompletedColumns(sess)

	assert.NotContains(t, updates, "stripe_customer_id")
	assert.NotContains(t, updates, "stripe_subscription_id")
	assert.Equal(t, "basic", updates["subscription_plan"])
}

func TestSubscriptionUpdatedColumns(t *testing.T) {
	periodEnd := time.Date(2026, 9, 30, 12, 0, 0, 0, time.UTC)
	sub := &stripe.Subscription{
		Status:           stripe.SubscriptionStatusPastDue,
		CurrentPeriodEnd: periodEnd.Unix(),
	}

	updates := subscriptionUpdatedColumns(sub)

	assert.Equal(t, "past_due", updates["subscription_status"])
	assert.True(t, periodEnd.Equal(updates["subscription_current_period_end"].(time.Time)))
}

func TestSubscriptionDeletedColumnsClearState(t *testing.T) {
	updates := subscriptionDeletedColumns()

	assert.Equal(t, "canceled", updates["subscription_status"])
	assert.Equal(t, "", updates["subscription_plan"])
	assert.Equal(t, "", updates["subscription_period"])
	assert.Equal(t, "", updates["stripe_subscription_id"])
	assert.NotContains(t, updates, "stripe_customer_id") // customer link survives for the portal
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	router := newBillingTestRouter(billingTestConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
