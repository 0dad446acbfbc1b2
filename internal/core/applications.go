package core

import (
	"context"
	"fmt"
	"strings"

	"foodbike/pkg/domain"

	"github.com/shopspring/decimal"
)

// ApplicationInput is an operator's onboarding request.
type ApplicationInput struct {
	RestaurantName string           `json:"restaurant_name" validate:"required,max=120"`
	Region         string           `json:"region" validate:"required,region"`
	Subregion      string           `json:"subregion" validate:"required"`
	Address        string           `json:"address" validate:"required"`
	Rating         *decimal.Decimal `json:"-"`
	MenuItems      []MenuItemInput  `json:"menu_items" validate:"dive"`
}

// ApplicationFilter narrows ListApplications. Empty fields match everything.
type ApplicationFilter struct {
	Status   domain.ApplicationStatus
	Operator string
}

// ApprovalResult reports the restaurant linked to an approved application.
type ApprovalResult struct {
	Application Application
	Restaurant  Restaurant
	// Materialized is false when a restaurant with the same name and region already existed.
	Materialized bool
}

// SubmitApplication files a pending onboarding application.
func (s *Service) SubmitApplication(ctx context.Context, actor Actor, in ApplicationInput) (Application, error) {
	if err := requireRole(actor, "submit applications", domain.RoleRestaurantOperator); err != nil {
		return Application{}, err
	}
	in.RestaurantName = strings.TrimSpace(in.RestaurantName)
	in.Subregion = strings.TrimSpace(in.Subregion)
	in.Address = strings.TrimSpace(in.Address)
	extra := restaurantInputChecks(RestaurantInput{Region: in.Region, Subregion: in.Subregion, Rating: in.Rating})
	if err := validateInput(domain.EntityApplication, in, extra); err != nil {
		return Application{}, err
	}
	region, _ := domain.LookupRegion(in.Region)
	rating := domain.DefaultRestaurantRating
	if in.Rating != nil {
		rating = in.Rating.Round(1)
	}

	var created Application
	_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateApplication(Application{
			ID:               s.newID(ApplicationIDPrefix),
			OperatorUsername: actor.Username,
			RestaurantName:   in.RestaurantName,
			Region:           region.Name,
			Subregion:        canonicalSubregion(region, in.Subregion),
			Address:          in.Address,
			Rating:           rating,
			MenuItems:        s.menuFromInputs(in.MenuItems),
			Status:           domain.ApplicationStatusPending,
		})
		return err
	})
	if err != nil && !domain.IsSoft(err) {
		return Application{}, err
	}
	actx := s.actorContext(ctx, actor)
	s.logSoft(actx, "submit_application", err)
	s.log.Info(s.log.WithField(actx, "application_id", created.ID), "application submitted")
	return created, err
}

// ListApplications returns matching applications in submission order.
func (s *Service) ListApplications(ctx context.Context, f ApplicationFilter) ([]Application, error) {
	var out []Application
	err := s.store.View(ctx, func(v domain.TransactionView) error {
		for _, a := range v.ListApplications() {
			if f.Status != "" && a.Status != f.Status {
				continue
			}
			if f.Operator != "" && a.OperatorUsername != f.Operator {
				continue
			}
			out = append(out, a)
		}
		return nil
	})
	return out, err
}

// ApproveApplication approves a pending application and materializes its
// restaurant unless one with the same name and region exists.
func (s *Service) ApproveApplication(ctx context.Context, actor Actor, id, message string) (ApprovalResult, error) {
	if err := requireRole(actor, "approve applications", domain.RoleAdmin); err != nil {
		return ApprovalResult{}, err
	}
	var res ApprovalResult
	_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		app, err := decideApplication(tx, id, domain.ApplicationStatusApproved, message)
		if err != nil {
			return err
		}
		rest, created, err := materializeApplication(tx, app)
		if err != nil {
			return err
		}
		res = ApprovalResult{Application: app, Restaurant: rest, Materialized: created}
		return s.audit(tx, actor, domain.AuditApprovedApplication, app.RestaurantName,
			fmt.Sprintf("application=%s restaurant=%s", app.ID, rest.ID))
	})
	if err != nil && !domain.IsSoft(err) {
		return ApprovalResult{}, err
	}
	actx := s.log.WithField(s.actorContext(ctx, actor), "application_id", id)
	s.logSoft(actx, "approve_application", err)
	s.log.Info(s.log.WithFields(actx, map[string]any{"restaurant_id": res.Restaurant.ID, "materialized": res.Materialized}), "application approved")
	return res, err
}

// RejectApplication rejects a pending application with a message for the operator.
func (s *Service) RejectApplication(ctx context.Context, actor Actor, id, message string) (Application, error) {
	if err := requireRole(actor, "reject applications", domain.RoleAdmin); err != nil {
		return Application{}, err
	}
	var app Application
	_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		app, err = decideApplication(tx, id, domain.ApplicationStatusRejected, message)
		if err != nil {
			return err
		}
		return s.audit(tx, actor, domain.AuditRejectedApplication, app.RestaurantName, strings.TrimSpace(message))
	})
	if err != nil && !domain.IsSoft(err) {
		return Application{}, err
	}
	s.logSoft(s.actorContext(ctx, actor), "reject_application", err)
	return app, err
}

// MarkApplicationMessageViewed records that the operator read the admin message.
func (s *Service) MarkApplicationMessageViewed(ctx context.Context, actor Actor, id string) (Application, error) {
	var app Application
	_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		current, ok := tx.FindApplication(id)
		if !ok {
			return &domain.NotFoundError{Entity: domain.EntityApplication, Key: id}
		}
		if current.OperatorUsername != actor.Username {
			return &domain.ForbiddenError{Actor: actor, Operation: "read the message of " + id}
		}
		if current.MessageViewed {
			app = current
			return nil
		}
		var err error
		app, err = tx.UpdateApplication(id, func(a *Application) error {
			a.MessageViewed = true
			return nil
		})
		return err
	})
	if err != nil && !domain.IsSoft(err) {
		return Application{}, err
	}
	return app, err
}

func decideApplication(tx domain.Transaction, id string, status domain.ApplicationStatus, message string) (Application, error) {
	current, ok := tx.FindApplication(id)
	if !ok {
		return Application{}, &domain.NotFoundError{Entity: domain.EntityApplication, Key: id}
	}
	if current.Status != domain.ApplicationStatusPending {
		return Application{}, domain.NewValidationError(domain.EntityApplication, "status", "is already "+current.Status.String())
	}
	return tx.UpdateApplication(id, func(a *Application) error {
		now := tx.Now()
		a.Status = status
		a.AdminMessage = strings.TrimSpace(message)
		a.DecidedAt = &now
		a.MessageViewed = false
		return nil
	})
}

// materializeApplication returns the restaurant for an approved application,
// creating it when no restaurant shares its name and region.
func materializeApplication(tx domain.Transaction, app Application) (Restaurant, bool, error) {
	view := tx.Snapshot()
	for _, r := range view.ListRestaurants() {
		if strings.EqualFold(r.Name, app.RestaurantName) && strings.EqualFold(r.Region, app.Region) {
			return r, false, nil
		}
	}
	region, ok := domain.LookupRegion(app.Region)
	if !ok {
		return Restaurant{}, false, domain.NewValidationError(domain.EntityApplication, "region", "must be a known region")
	}
	id := allocateRestaurantID(view, region)
	menu := make([]MenuItem, len(app.MenuItems))
	for i, item := range app.MenuItems {
		if item.ID == "" {
			item.ID = fmt.Sprintf("%s_item_%d", id, i+1)
		}
		menu[i] = item
	}
	rating := app.Rating
	if rating.IsZero() {
		rating = domain.DefaultRestaurantRating
	}
	created, err := tx.CreateRestaurant(Restaurant{
		ID:               id,
		Name:             app.RestaurantName,
		Region:           region.Name,
		Subregion:        canonicalSubregion(region, app.Subregion),
		Address:          app.Address,
		Rating:           rating,
		Menu:             menu,
		OperatorUsername: app.OperatorUsername,
	})
	if err != nil {
		return Restaurant{}, false, err
	}
	return created, true, nil
}
