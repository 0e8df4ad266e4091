package controller

import (
	"context"
	"strconv"
	"time"

	"realty_backend/internal/middleware"
	"realty_backend/internal/model"
	"realty_backend/internal/store"
	"realty_backend/pkg/apperror"
	"realty_backend/pkg/email"
	"realty_backend/pkg/utils/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type ContactInput struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Subject    string `json:"subject"`
	Message    string `json:"message"`
	PropertyID *uint  `json:"property_id"`
	Source     string `json:"source"`
	Referrer   string `json:"referrer"`
	SessionID  string `json:"session_id"`
}

type ContactController struct {
	contacts   *store.ContactStore
	properties store.PropertyStore
	events     EventRecorder
	notifier   *email.Notifier
	siteURL    string
	log        *logrus.Logger
}

func NewContactController(contacts *store.ContactStore, properties store.PropertyStore, events EventRecorder, notifier *email.Notifier, siteURL string, log *logrus.Logger) *ContactController {
	return &ContactController{
		contacts:   contacts,
		properties: properties,
		events:     events,
		notifier:   notifier,
		siteURL:    siteURL,
		log:        log,
	}
}

// CreateContact stores a public inquiry and notifies the office by email in
// the background.
func (cc *ContactController) CreateContact(c *fiber.Ctx) error {
	input := new(ContactInput)
	if err := c.BodyParser(input); err != nil {
		return apperror.Validation("", "Invalid input")
	}

	form := validation.Inquiry{
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		Subject: input.Subject,
		Message: input.Message,
	}
	form.Normalize()
	if err := validation.ValidateInquiry(form); err != nil {
		return err
	}

	ctx := c.UserContext()
	var property *model.Property
	if input.PropertyID != nil {
		p, err := cc.properties.Get(ctx, strconv.FormatUint(uint64(*input.PropertyID), 10))
		if err != nil {
			if apperror.Is(err, apperror.KindNotFound) {
				return apperror.Validation("property_id", "Property does not exist")
			}
			return err
		}
		property = p
	}

	meta := middleware.Meta(c)
	referrer := input.Referrer
	if referrer == "" {
		referrer = c.Get(fiber.HeaderReferer)
	}
	source := input.Source
	if source == "" {
		source = "website"
	}

	inquiry := &model.ContactInquiry{
		PropertyID: input.PropertyID,
		Name:       form.Name,
		Email:      form.Email,
		Phone:      form.Phone,
		Subject:    form.Subject,
		Message:    form.Message,
		Source:     source,
		Referrer:   referrer,
		UserAgent:  meta.UserAgent,
		IPAddress:  meta.IP,
	}
	if err := cc.contacts.Create(ctx, inquiry); err != nil {
		return err
	}

	cc.track(ctx, inquiry, input.SessionID)
	cc.notify(inquiry, property)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Your inquiry has been sent successfully. We will contact you soon.",
		"id":        inquiry.ID,
		"reference": inquiry.Reference,
	})
}

func (cc *ContactController) track(ctx context.Context, inquiry *model.ContactInquiry, sessionID string) {
	if cc.events == nil {
		return
	}
	event := &model.AnalyticsEvent{
		EventType:  model.EventContactSubmit,
		PropertyID: inquiry.PropertyID,
		SessionID:  sessionID,
		Referrer:   inquiry.Referrer,
		UserAgent:  inquiry.UserAgent,
		IPAddress:  inquiry.IPAddress,
	}
	if err := cc.events.Track(ctx, event); err != nil {
		cc.log.WithError(err).Debug("Failed to record contact event")
	}
}

func (cc *ContactController) notify(inquiry *model.ContactInquiry, property *model.Property) {
	data := email.InquiryNotificationData{
		Reference:  inquiry.Reference,
		Name:       inquiry.Name,
		Email:      inquiry.Email,
		Phone:      inquiry.Phone,
		Subject:    inquiry.Subject,
		Message:    inquiry.Message,
		Source:     inquiry.Source,
		ReceivedAt: time.Now(),
	}
	if property != nil {
		data.PropertyTitle = property.Title
		if cc.siteURL != "" {
			data.PropertyURL = cc.siteURL + "/properties/" + property.Slug
		}
	}
	cc.notifier.NotifyInquiryAsync(data)
}

func (cc *ContactController) ListContacts(c *fiber.Ctx) error {
	f := store.ContactFilter{
		Status:     c.Query("status"),
		Priority:   c.Query("priority"),
		AssignedTo: c.Query("assigned_to"),
		Search:     c.Query("search"),
		Sort:       c.Query("sort"),
		Order:      c.Query("order"),
	}
	var err error
	if f.PropertyID, err = queryInt(c, "property_id"); err != nil {
		return err
	}
	if f.Limit, err = queryIntOr(c, "limit", 0); err != nil {
		return err
	}
	if f.Offset, err = queryIntOr(c, "offset", 0); err != nil {
		return err
	}

	page, err := cc.contacts.List(c.UserContext(), f)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (cc *ContactController) GetContact(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	inquiry, err := cc.contacts.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"contact": inquiry})
}

func (cc *ContactController) UpdateContactStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var update model.InquiryUpdate
	if err := c.BodyParser(&update); err != nil {
		return apperror.Validation("", "Invalid input")
	}

	inquiry, err := cc.contacts.UpdateStatus(c.UserContext(), id, update)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Inquiry updated successfully",
		"contact": inquiry,
	})
}

func (cc *ContactController) DeleteContact(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := cc.contacts.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Inquiry deleted successfully"})
}
