package core

import (
	"context"
	"fmt"
	"strings"

	"foodbike/pkg/domain"
)

// AddMenuItem appends a dish to a restaurant menu. The owning operator or an
// administrator may edit a menu; administrator edits are audited.
func (s *Service) AddMenuItem(ctx context.Context, actor Actor, restaurantID string, in MenuItemInput) (MenuItem, error) {
	if err := domain.Validate(domain.EntityMenuItem, in); err != nil {
		return MenuItem{}, err
	}
	item := s.menuItemFromInput(in)
	_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		r, err := s.editableRestaurant(tx, actor, restaurantID, "add menu items")
		if err != nil {
			return err
		}
		if _, err := tx.UpdateRestaurant(r.ID, func(r *Restaurant) error {
			r.Menu = append(r.Menu, item)
			return nil
		}); err != nil {
			return err
		}
		return s.auditMenuEdit(tx, actor, domain.AuditAddedMenuItem, r, fmt.Sprintf("added %s at %s", item.Name, item.Price.StringFixed(2)))
	})
	if err != nil && !domain.IsSoft(err) {
		return MenuItem{}, err
	}
	s.logSoft(s.actorContext(ctx, actor), "add_menu_item", err)
	return item, err
}

// UpdateMenuItem replaces the name, description and price of a dish. Orders
// already placed keep the values captured at placement.
func (s *Service) UpdateMenuItem(ctx context.Context, actor Actor, restaurantID, itemID string, in MenuItemInput) (MenuItem, error) {
	if err := domain.Validate(domain.EntityMenuItem, in); err != nil {
		return MenuItem{}, err
	}
	var updated MenuItem
	_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		r, err := s.editableRestaurant(tx, actor, restaurantID, "edit menu items")
		if err != nil {
			return err
		}
		before, ok := r.FindMenuItem(itemID)
		if !ok {
			return &domain.NotFoundError{Entity: domain.EntityMenuItem, Key: itemID}
		}
		if _, err := tx.UpdateRestaurant(r.ID, func(r *Restaurant) error {
			for i := range r.Menu {
				if r.Menu[i].ID == itemID {
					r.Menu[i].Name = strings.TrimSpace(in.Name)
					r.Menu[i].Description = strings.TrimSpace(in.Description)
					r.Menu[i].Price = in.Price
					updated = r.Menu[i]
				}
			}
			return nil
		}); err != nil {
			return err
		}
		return s.auditMenuEdit(tx, actor, domain.AuditEditedMenuItem, r,
			fmt.Sprintf("%s: %s -> %s", before.Name, before.Price.StringFixed(2), updated.Price.StringFixed(2)))
	})
	if err != nil && !domain.IsSoft(err) {
		return MenuItem{}, err
	}
	s.logSoft(s.actorContext(ctx, actor), "update_menu_item", err)
	return updated, err
}

// DeleteMenuItem removes a dish and reports whether it existed.
func (s *Service) DeleteMenuItem(ctx context.Context, actor Actor, restaurantID, itemID string) (bool, error) {
	removed := false
	_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		r, err := s.editableRestaurant(tx, actor, restaurantID, "delete menu items")
		if err != nil {
			return err
		}
		item, ok := r.FindMenuItem(itemID)
		if !ok {
			return nil
		}
		if _, err := tx.UpdateRestaurant(r.ID, func(r *Restaurant) error {
			menu := make([]MenuItem, 0, len(r.Menu))
			for _, it := range r.Menu {
				if it.ID != itemID {
					menu = append(menu, it)
				}
			}
			r.Menu = menu
			return nil
		}); err != nil {
			return err
		}
		removed = true
		return s.auditMenuEdit(tx, actor, domain.AuditEditedMenu, r, "removed "+item.Name)
	})
	if err != nil && !domain.IsSoft(err) {
		return false, err
	}
	s.logSoft(s.actorContext(ctx, actor), "delete_menu_item", err)
	return removed, err
}

func (s *Service) editableRestaurant(tx domain.Transaction, actor Actor, id, operation string) (Restaurant, error) {
	r, ok := tx.FindRestaurant(id)
	if !ok {
		return Restaurant{}, &domain.NotFoundError{Entity: domain.EntityRestaurant, Key: id}
	}
	switch {
	case actor.Role == domain.RoleAdmin:
	case actor.Role == domain.RoleRestaurantOperator && r.OperatorUsername == actor.Username:
	default:
		return Restaurant{}, &domain.ForbiddenError{Actor: actor, Operation: operation + " of " + id}
	}
	return r, nil
}

func (s *Service) auditMenuEdit(tx domain.Transaction, actor Actor, action domain.AuditAction, r Restaurant, details string) error {
	if actor.Role != domain.RoleAdmin {
		return nil
	}
	return s.audit(tx, actor, action, r.Name, details)
}
