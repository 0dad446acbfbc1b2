package core

import "foodbike/pkg/domain"

type (
	Account         = domain.Account
	Restaurant      = domain.Restaurant
	MenuItem        = domain.MenuItem
	Order           = domain.Order
	Application     = domain.Application
	AuditEntry      = domain.AuditEntry
	Review          = domain.Review
	Actor           = domain.Actor
	Result          = domain.Result
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
	PersistentStore = domain.PersistentStore
)
