package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"foodbike/pkg/domain"

	"github.com/shopspring/decimal"
)

// RestaurantInput describes a restaurant created by an administrator.
type RestaurantInput struct {
	Name             string           `json:"name" validate:"required,max=120"`
	Region           string           `json:"region" validate:"required,region"`
	Subregion        string           `json:"subregion" validate:"required"`
	Address          string           `json:"address" validate:"required"`
	Rating           *decimal.Decimal `json:"-"`
	OperatorUsername string           `json:"operator_username,omitempty"`
	Menu             []MenuItemInput  `json:"menu" validate:"dive"`
}

// MenuItemInput is a dish before it has an identifier.
type MenuItemInput struct {
	Name        string          `json:"name" validate:"required,max=120"`
	Description string          `json:"description,omitempty" validate:"max=500"`
	Price       decimal.Decimal `json:"price" validate:"gt=0"`
}

// RestaurantPatch changes selected fields. The region is fixed because it is
// encoded in the identifier.
type RestaurantPatch struct {
	Name             *string
	Subregion        *string
	Address          *string
	OperatorUsername *string
}

// RestaurantFilter narrows SearchRestaurants. Empty fields match everything.
type RestaurantFilter struct {
	Query     string
	Region    string
	Subregion string
}

// CreateRestaurant lists a new restaurant with a region-scoped identifier.
func (s *Service) CreateRestaurant(ctx context.Context, actor Actor, in RestaurantInput) (Restaurant, error) {
	if err := requireRole(actor, "create restaurants", domain.RoleAdmin); err != nil {
		return Restaurant{}, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Subregion = strings.TrimSpace(in.Subregion)
	in.Address = strings.TrimSpace(in.Address)
	if err := validateInput(domain.EntityRestaurant, in, restaurantInputChecks(in)); err != nil {
		return Restaurant{}, err
	}
	region, _ := domain.LookupRegion(in.Region)
	rating := domain.DefaultRestaurantRating
	if in.Rating != nil {
		rating = in.Rating.Round(1)
	}

	var created Restaurant
	_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := checkOperator(tx, in.OperatorUsername); err != nil {
			return err
		}
		var err error
		created, err = tx.CreateRestaurant(Restaurant{
			ID:               allocateRestaurantID(tx.Snapshot(), region),
			Name:             in.Name,
			Region:           region.Name,
			Subregion:        canonicalSubregion(region, in.Subregion),
			Address:          in.Address,
			Rating:           rating,
			Menu:             s.menuFromInputs(in.Menu),
			OperatorUsername: in.OperatorUsername,
		})
		if err != nil {
			return err
		}
		return s.audit(tx, actor, domain.AuditAddedRestaurant, created.Name,
			fmt.Sprintf("id=%s region=%s subregion=%s", created.ID, created.Region, created.Subregion))
	})
	if err != nil && !domain.IsSoft(err) {
		return Restaurant{}, err
	}
	actx := s.actorContext(ctx, actor)
	s.logSoft(actx, "create_restaurant", err)
	s.log.Info(s.log.WithField(actx, "restaurant_id", created.ID), "restaurant created")
	return created, err
}

// UpdateRestaurant applies patch to an existing restaurant.
func (s *Service) UpdateRestaurant(ctx context.Context, actor Actor, id string, patch RestaurantPatch) (Restaurant, error) {
	if err := requireRole(actor, "update restaurants", domain.RoleAdmin); err != nil {
		return Restaurant{}, err
	}
	var updated Restaurant
	_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if patch.OperatorUsername != nil {
			if err := checkOperator(tx, *patch.OperatorUsername); err != nil {
				return err
			}
		}
		var err error
		updated, err = tx.UpdateRestaurant(id, func(r *Restaurant) error {
			return applyRestaurantPatch(r, patch)
		})
		return err
	})
	if err != nil && !domain.IsSoft(err) {
		return Restaurant{}, err
	}
	s.logSoft(s.actorContext(ctx, actor), "update_restaurant", err)
	return updated, err
}

func applyRestaurantPatch(r *Restaurant, patch RestaurantPatch) error {
	fields := make(map[string]string)
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			fields["name"] = "is required"
		}
		r.Name = name
	}
	if patch.Address != nil {
		addr := strings.TrimSpace(*patch.Address)
		if addr == "" {
			fields["address"] = "is required"
		}
		r.Address = addr
	}
	if patch.Subregion != nil {
		region, _ := domain.LookupRegion(r.Region)
		if !region.HasSubregion(*patch.Subregion) {
			fields["subregion"] = "must belong to region " + r.Region
		}
		r.Subregion = canonicalSubregion(region, *patch.Subregion)
	}
	if patch.OperatorUsername != nil {
		r.OperatorUsername = *patch.OperatorUsername
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Entity: domain.EntityRestaurant, Fields: fields}
	}
	return nil
}

// DeleteRestaurant removes a restaurant and reports whether it existed.
// Orders and reviews that reference it are kept.
func (s *Service) DeleteRestaurant(ctx context.Context, actor Actor, id string) (bool, error) {
	if err := requireRole(actor, "delete restaurants", domain.RoleAdmin); err != nil {
		return false, err
	}
	existed := false
	_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		current, ok := tx.FindRestaurant(id)
		if !ok {
			return nil
		}
		existed = tx.DeleteRestaurant(id)
		return s.audit(tx, actor, domain.AuditDeletedRestaurant, current.Name, "id="+id)
	})
	if err != nil && !domain.IsSoft(err) {
		return false, err
	}
	s.logSoft(s.actorContext(ctx, actor), "delete_restaurant", err)
	return existed, err
}

// GetRestaurant returns one restaurant with its menu.
func (s *Service) GetRestaurant(ctx context.Context, id string) (Restaurant, error) {
	var (
		r  Restaurant
		ok bool
	)
	if err := s.store.View(ctx, func(v domain.TransactionView) error {
		r, ok = v.FindRestaurant(id)
		return nil
	}); err != nil {
		return Restaurant{}, err
	}
	if !ok {
		return Restaurant{}, &domain.NotFoundError{Entity: domain.EntityRestaurant, Key: id}
	}
	return r, nil
}

// SearchRestaurants matches Query case-insensitively against name, subregion,
// region and address. Results keep insertion order.
func (s *Service) SearchRestaurants(ctx context.Context, f RestaurantFilter) ([]Restaurant, error) {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	var out []Restaurant
	err := s.store.View(ctx, func(v domain.TransactionView) error {
		for _, r := range v.ListRestaurants() {
			if f.Region != "" && !strings.EqualFold(r.Region, strings.TrimSpace(f.Region)) {
				continue
			}
			if f.Subregion != "" && !strings.EqualFold(r.Subregion, strings.TrimSpace(f.Subregion)) {
				continue
			}
			if query != "" && !matchesQuery(r, query) {
				continue
			}
			out = append(out, r)
		}
		return nil
	})
	return out, err
}

func matchesQuery(r Restaurant, query string) bool {
	for _, field := range []string{r.Name, r.Subregion, r.Region, r.Address} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// RestaurantsByOperator lists the restaurants an operator manages.
func (s *Service) RestaurantsByOperator(ctx context.Context, username string) ([]Restaurant, error) {
	var out []Restaurant
	err := s.store.View(ctx, func(v domain.TransactionView) error {
		for _, r := range v.ListRestaurants() {
			if r.OperatorUsername != "" && r.OperatorUsername == username {
				out = append(out, r)
			}
		}
		return nil
	})
	return out, err
}

// Rating returns the stored rating of a restaurant.
func (s *Service) Rating(ctx context.Context, restaurantID string) (decimal.Decimal, error) {
	r, err := s.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return decimal.Zero, err
	}
	return r.Rating, nil
}

func restaurantInputChecks(in RestaurantInput) map[string]string {
	extra := make(map[string]string)
	if region, ok := domain.LookupRegion(in.Region); ok && in.Subregion != "" && !region.HasSubregion(in.Subregion) {
		extra["subregion"] = "must belong to region " + region.Name
	}
	if in.Rating != nil && (in.Rating.IsNegative() || in.Rating.GreaterThan(decimal.NewFromInt(5))) {
		extra["rating"] = "must be between 0 and 5"
	}
	return extra
}

func canonicalSubregion(region domain.Region, name string) string {
	for _, sub := range region.Subregions {
		if strings.EqualFold(sub, strings.TrimSpace(name)) {
			return sub
		}
	}
	return strings.TrimSpace(name)
}

// checkOperator accepts an empty username or an existing restaurant operator.
func checkOperator(tx domain.Transaction, username string) error {
	if username == "" {
		return nil
	}
	acc, ok := tx.FindAccount(username)
	if !ok || acc.Role != domain.RoleRestaurantOperator {
		return domain.NewValidationError(domain.EntityRestaurant, "operator_username", "must name a restaurant operator account")
	}
	return nil
}

func (s *Service) menuFromInputs(items []MenuItemInput) []MenuItem {
	out := make([]MenuItem, 0, len(items))
	for _, in := range items {
		out = append(out, s.menuItemFromInput(in))
	}
	return out
}

func (s *Service) menuItemFromInput(in MenuItemInput) MenuItem {
	return MenuItem{
		ID:          s.newID(MenuItemIDPrefix),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
	}
}

// validateInput runs struct validation and folds in checks the tags cannot
// express. The result lists every failing field.
func validateInput(entity domain.EntityType, value any, extra map[string]string) error {
	err := domain.Validate(entity, value)
	if len(extra) == 0 {
		return err
	}
	var verr *domain.ValidationError
	if err != nil && !errors.As(err, &verr) {
		return err
	}
	if verr == nil {
		verr = &domain.ValidationError{Entity: entity, Fields: make(map[string]string, len(extra))}
	}
	for field, msg := range extra {
		if _, ok := verr.Fields[field]; !ok {
			verr.Fields[field] = msg
		}
	}
	return verr
}
