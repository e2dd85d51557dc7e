package service

import (
	"context"
	"errors"
	"strings"

	"dukaan/backend/internal/domain"
	"dukaan/backend/internal/reminder"
	"dukaan/backend/internal/store"
)

// InvoiceReminder composes the payment reminder for one invoice.
func (s *Service) InvoiceReminder(ctx context.Context, id string) (domain.Reminder, error) {
	actor, err := actorStore(ctx)
	if err != nil {
		return domain.Reminder{}, err
	}
	inv, err := s.repo.GetInvoice(ctx, actor.Store, id)
	if err != nil {
		return domain.Reminder{}, err
	}
	templates, sender, err := s.reminderContext(ctx, actor)
	if err != nil {
		return domain.Reminder{}, err
	}

	msg, err := reminder.Compose(templates, sender, reminder.ForInvoice(*inv))
	if errors.Is(err, reminder.ErrNoPhone) {
		return domain.Reminder{}, invalid("invoice %s has no phone number", inv.ID)
	}
	if err != nil {
		return domain.Reminder{}, err
	}
	s.metrics.RemindersBuilt(1)
	return msg, nil
}

// GroupedReminders composes one reminder per customer with an outstanding
// balance, in the order customers first appear in the invoice list.
func (s *Service) GroupedReminders(ctx context.Context) ([]domain.Reminder, error) {
	actor, err := actorStore(ctx)
	if err != nil {
		return nil, err
	}
	invoices, err := s.repo.ListInvoices(ctx, actor.Store)
	if err != nil {
		return nil, err
	}
	templates, sender, err := s.reminderContext(ctx, actor)
	if err != nil {
		return nil, err
	}

	groups := reminder.GroupInvoices(invoices)
	reminders := make([]domain.Reminder, 0, len(groups))
	for _, g := range groups {
		msg, err := reminder.Compose(templates, sender, g)
		if err != nil {
			s.log.Warn().Err(err).Str("store", actor.Store).Str("customer", g.Customer).Msg("skipping reminder")
			continue
		}
		reminders = append(reminders, msg)
	}
	s.metrics.RemindersBuilt(len(reminders))
	return reminders, nil
}

func (s *Service) reminderContext(ctx context.Context, actor domain.Actor) (domain.MessageTemplates, reminder.Sender, error) {
	templates, err := s.templatesFor(ctx, actor.Store)
	if err != nil {
		return domain.MessageTemplates{}, reminder.Sender{}, err
	}
	sender := reminder.Sender{Store: actor.Store}
	if actor.UserID != "" {
		user, err := s.repo.GetUser(ctx, actor.UserID)
		switch {
		case err == nil:
			sender.Phone = user.Phone
		case !errors.Is(err, store.ErrNotFound):
			return domain.MessageTemplates{}, reminder.Sender{}, err
		}
	}
	return templates, sender, nil
}

// GetTemplates returns the caller's message templates, or the defaults when
// none were saved.
func (s *Service) GetTemplates(ctx context.Context) (domain.MessageTemplates, error) {
	actor, err := actorStore(ctx)
	if err != nil {
		return domain.MessageTemplates{}, err
	}
	return s.templatesFor(ctx, actor.Store)
}

// SaveTemplates stores the caller's templates. A blank template resets that
// channel to its default text.
func (s *Service) SaveTemplates(ctx context.Context, req domain.TemplateRequest) (domain.MessageTemplates, error) {
	actor, err := actorStore(ctx)
	if err != nil {
		return domain.MessageTemplates{}, err
	}
	defaults := reminder.DefaultTemplates(actor.Store)
	tpl := domain.MessageTemplates{
		Store:     actor.Store,
		WhatsApp:  defaultString(req.WhatsApp, defaults.WhatsApp),
		SMS:       defaultString(req.SMS, defaults.SMS),
		UpdatedAt: s.now().UTC(),
	}
	saved, err := s.repo.SaveTemplates(ctx, tpl)
	if err != nil {
		return domain.MessageTemplates{}, err
	}
	return *saved, nil
}

func (s *Service) templatesFor(ctx context.Context, storeName string) (domain.MessageTemplates, error) {
	tpl, err := s.repo.GetTemplates(ctx, storeName)
	if errors.Is(err, store.ErrNotFound) {
		return reminder.DefaultTemplates(storeName), nil
	}
	if err != nil {
		return domain.MessageTemplates{}, err
	}
	if strings.TrimSpace(tpl.Store) == "" {
		tpl.Store = storeName
	}
	return *tpl, nil
}
