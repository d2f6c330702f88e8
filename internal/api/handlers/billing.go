package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/razberry-fun/razberry-api/internal/config"
	"github.com/razberry-fun/razberry-api/internal/logger"
	"github.com/razberry-fun/razberry-api/internal/middleware"
	"github.com/razberry-fun/razberry-api/internal/models"
	"github.com/razberry-fun/razberry-api/internal/services"
	"github.com/stripe/stripe-go/v78"
	portalsession "github.com/stripe/stripe-go/v78/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v78/checkout/session"
	"github.com/stripe/stripe-go/v78/customer"
	"github.com/stripe/stripe-go/v78/webhook"
	"gorm.io/gorm"
)

const maxWebhookBodyBytes = 65536

type BillingHandler struct {
	db    *gorm.DB
	cfg   *config.Config
	usage *services.UsageService
}

func NewBillingHandler(db *gorm.DB, cfg *config.Config, usage *services.UsageService) *BillingHandler {
	stripe.Key = cfg.StripeSecretKey
	return &BillingHandler{db: db, cfg: cfg, usage: usage}
}

type CheckoutRequest struct {
	Plan          string `json:"plan"`
	BillingPeriod string `json:"billingPeriod"`
}

// Checkout creates a subscription checkout session and returns its URL
func (h *BillingHandler) Checkout(c *gin.Context) {
	profile, exists := middleware.GetCurrentProfile(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	priceID := h.cfg.StripePriceID(req.Plan, req.BillingPeriod)
	if priceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan or billing period"})
		return
	}

	customerID, err := h.findOrCreateCustomer(profile)
	if err != nil {
		logger.Error("Failed to resolve Stripe customer", err, logger.Fields{
			"profile_id": profile.ID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session"})
		return
	}

	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:          stripe.String(h.cfg.AppURL + "/profile?subscription_success=true&session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:           stripe.String(h.cfg.AppURL + "/pricing?canceled=true"),
		AllowPromotionCodes: stripe.Bool(true),
	}
	params.AddMetadata("profileId", fmt.Sprintf("%d", profile.ID))
	params.AddMetadata("plan", req.Plan)
	params.AddMetadata("billingPeriod", req.BillingPeriod)

	sess, err := checkoutsession.New(params)
	if err != nil {
		logger.Error("Failed to create checkout session", err, logger.Fields{
			"profile_id": profile.ID,
			"plan":       req.Plan,
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": sess.URL})
}

// findOrCreateCustomer reuses the stored customer, then falls back to an
// email lookup, then creates a new customer.
func (h *BillingHandler) findOrCreateCustomer(profile *models.Profile) (string, error) {
	if profile.StripeCustomerID != "" {
		return profile.StripeCustomerID, nil
	}

	listParams := &stripe.CustomerListParams{Email: stripe.String(profile.Email)}
	listParams.Limit = stripe.Int64(1)
	iter := customer.List(listParams)
	customerID := ""
	if iter.Next() {
		customerID = iter.Customer().ID
	} else {
		created, err := customer.New(&stripe.CustomerParams{
			Email: stripe.String(profile.Email),
			Name:  stripe.String(profile.Name),
		})
		if err != nil {
			return "", err
		}
		customerID = created.ID
	}

	err := h.db.Model(&models.Profile{}).Where("id = ?", profile.ID).
		Update("stripe_customer_id", customerID).Error
	return customerID, err
}

// Portal opens a billing portal session for the caller's customer
func (h *BillingHandler) Portal(c *gin.Context) {
	profile, exists := middleware.GetCurrentProfile(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if profile.StripeCustomerID == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No billing account"})
		return
	}

	sess, err := portalsession.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(profile.StripeCustomerID),
		ReturnURL: stripe.String(h.cfg.AppURL + "/profile"),
	})
	if err != nil {
		logger.Error("Failed to create portal session", err, logger.Fields{
			"profile_id": profile.ID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create portal session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": sess.URL})
}

// Webhook receives Stripe events and mutates the profile's subscription
// state. Unknown event types are acknowledged so Stripe stops retrying.
func (h *BillingHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read payload"})
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.cfg.StripeWebhookSecret)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}

	switch string(event.Type) {
	case "checkout.session.completed":
		err = h.handleCheckoutCompleted(&event)
	case "customer.subscription.updated":
		err = h.handleSubscriptionUpdated(&event)
	case "customer.subscription.deleted":
		err = h.handleSubscriptionDeleted(&event)
	case "invoice.payment_succeeded":
		err = h.handleInvoiceEvent(&event, "active")
	case "invoice.payment_failed":
		err = h.handleInvoiceEvent(&event, "past_due")
	default:
		logger.Info("Unhandled Stripe event", logger.Fields{"type": string(event.Type)})
	}

	if err != nil {
		logger.Error("Failed to process Stripe event", err, logger.Fields{
			"type": string(event.Type),
			"id":   event.ID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *BillingHandler) handleCheckoutCompleted(event *stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return err
	}

	profileID, err := checkoutProfileID(&sess)
	if err != nil {
		return fmt.Errorf("checkout session %s: %w", sess.ID, err)
	}

	var profile models.Profile
	if err := h.db.First(&profile, profileID).Error; err != nil {
		return fmt.Errorf("profile for checkout session %s not found: %w", sess.ID, err)
	}

	plan := sess.Metadata["plan"]
	if err := h.db.Model(&profile).Updates(checkoutCompletedColumns(&sess)).Error; err != nil {
		return err
	}
	return h.usage.ApplyPlanAllowance(context.Background(), profile.ID, plan)
}

// checkoutProfileID parses the profile id the checkout session was created
// with. The id column is an integer, so the metadata string is parsed
// rather than bound as-is.
func checkoutProfileID(sess *stripe.CheckoutSession) (uint, error) {
	raw := sess.Metadata["profileId"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid profileId metadata %q: %w", raw, err)
	}
	return uint(id), nil
}

// checkoutCompletedColumns builds the profile column updates for a
// completed checkout session.
func checkoutCompletedColumns(sess *stripe.CheckoutSession) map[string]interface{} {
	updates := map[string]interface{}{
		"subscription_status": "active",
		"subscription_plan":   sess.Metadata["plan"],
		"subscription_period": sess.Metadata["billingPeriod"],
	}
	if sess.Customer != nil {
		updates["stripe_customer_id"] = sess.Customer.ID
	}
	if sess.Subscription != nil {
		updates["stripe_subscription_id"] = sess.Subscription.ID
	}
	return updates
}

func (h *BillingHandler) handleSubscriptionUpdated(event *stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return err
	}

	return h.db.Model(&models.Profile{}).
		Where("stripe_subscription_id = ?", sub.ID).
		Updates(subscriptionUpdatedColumns(&sub)).Error
}

// subscriptionUpdatedColumns builds the profile column updates for a
// subscription state change.
func subscriptionUpdatedColumns(sub *stripe.Subscription) map[string]interface{} {
	return map[string]interface{}{
		"subscription_status":             string(sub.Status),
		"subscription_current_period_end": time.Unix(sub.CurrentPeriodEnd, 0),
	}
}

func (h *BillingHandler) handleSubscriptionDeleted(event *stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return err
	}

	var profile models.Profile
	if err := h.db.Where("stripe_subscription_id = ?", sub.ID).First(&profile).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return err
	}

	if err := h.db.Model(&profile).Updates(subscriptionDeletedColumns()).Error; err != nil {
		return err
	}
	return h.usage.ApplyPlanAllowance(context.Background(), profile.ID, "")
}

// subscriptionDeletedColumns clears the profile's subscription state
func subscriptionDeletedColumns() map[string]interface{} {
	return map[string]interface{}{
		"subscription_status":    "canceled",
		"subscription_plan":      "",
		"subscription_period":    "",
		"stripe_subscription_id": "",
	}
}

func (h *BillingHandler) handleInvoiceEvent(event *stripe.Event, status string) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return err
	}
	if invoice.Customer == nil {
		return nil
	}

	return h.db.Model(&models.Profile{}).
		Where("stripe_customer_id = ?", invoice.Customer.ID).
		Update("subscription_status", status).Error
}
