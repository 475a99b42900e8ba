package domain

import (
	"time"

	"github.com/google/uuid"
)

// Workspace scopes all investor, ledger and financial-year data to one
// administrator account.
type Workspace struct {
	ID              int32     `json:"id"`
	UserID          uuid.UUID `json:"userId"`
	Name            string    `json:"name"`
	DefaultCurrency Currency  `json:"defaultCurrency"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type WorkspaceRepository interface {
	GetByID(id int32) (*Workspace, error)
	GetByUserID(userID uuid.UUID) (*Workspace, error)
	GetByUserAuth0ID(auth0ID string) (*Workspace, error)
	Create(workspace *Workspace) (*Workspace, error)
}
