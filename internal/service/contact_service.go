package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/contactio/contactio/internal/models"
)

// ErrInvalidContact is returned for contacts failing field validation; the
// wrapped message names the offending field.
var ErrInvalidContact = errors.New("invalid contact")

var phonePattern = regexp.MustCompile(`^[0-9]{6,15}$`)

// ContactStore is implemented by repository.ContactRepository.
type ContactStore interface {
	Create(ctx context.Context, contact *models.Contact) error
	Get(ctx context.Context, ownerEmail, id string) (*models.Contact, error)
	List(ctx context.Context, ownerEmail string) ([]models.Contact, error)
	Update(ctx context.Context, contact *models.Contact) error
	Delete(ctx context.Context, ownerEmail, id string) error
}

type ContactService struct {
	store  ContactStore
	logger *logrus.Logger
	now    func() time.Time
}

func NewContactService(store ContactStore, logger *logrus.Logger) *ContactService {
	return &ContactService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

func (s *ContactService) validate(contact *models.Contact) error {
	if strings.TrimSpace(contact.FirstName) == "" {
		return fmt.Errorf("%w: first_name is required", ErrInvalidContact)
	}
	if contact.Phone != "" && !phonePattern.MatchString(contact.Phone) {
		return fmt.Errorf("%w: phone must be 6-15 digits", ErrInvalidContact)
	}
	if contact.Birthday != nil && !contact.Birthday.Before(s.now()) {
		return fmt.Errorf("%w: birthday must be in the past", ErrInvalidContact)
	}
	return nil
}

func (s *ContactService) Create(ctx context.Context, contact *models.Contact) error {
	if err := s.validate(contact); err != nil {
		return err
	}
	return s.store.Create(ctx, contact)
}

func (s *ContactService) Get(ctx context.Context, ownerEmail, id string) (*models.Contact, error) {
	return s.store.Get(ctx, ownerEmail, id)
}

// List returns the user's contacts; a non-empty query keeps only contacts
// whose name or email contains it, case-insensitively.
func (s *ContactService) List(ctx context.Context, ownerEmail, query string) ([]models.Contact, error) {
	contacts, err := s.store.List(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}

	if query == "" {
		return contacts, nil
	}

	needle := strings.ToLower(query)
	matched := make([]models.Contact, 0, len(contacts))
	for _, contact := range contacts {
		haystack := strings.ToLower(contact.FullName() + " " + contact.Email)
		if strings.Contains(haystack, needle) {
			matched = append(matched, contact)
		}
	}
	return matched, nil
}

// Update replaces the mutable fields of an existing contact.
func (s *ContactService) Update(ctx context.Context, contact *models.Contact) error {
	if err := s.validate(contact); err != nil {
		return err
	}
	return s.store.Update(ctx, contact)
}

func (s *ContactService) Delete(ctx context.Context, ownerEmail, id string) error {
	if _, err := s.store.Get(ctx, ownerEmail, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, ownerEmail, id)
}

// UpcomingBirthdays lists contacts whose birthday falls within the next
// `days` days, counting today and handling the year boundary.
func (s *ContactService) UpcomingBirthdays(ctx context.Context, ownerEmail string, days int) ([]models.Contact, error) {
	contacts, err := s.store.List(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}

	today := s.now().UTC()
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	var upcoming []models.Contact
	for _, contact := range contacts {
		if contact.Birthday == nil {
			continue
		}
		next := time.Date(today.Year(), contact.Birthday.Month(), contact.Birthday.Day(), 0, 0, 0, 0, time.UTC)
		if next.Before(today) {
			next = next.AddDate(1, 0, 0)
		}
		if int(next.Sub(today).Hours()/24) < days {
			upcoming = append(upcoming, contact)
		}
	}
	return upcoming, nil
}
