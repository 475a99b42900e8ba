package service

import (
	"github.com/saham-app/saham-backend/internal/domain"
)

// ProfileService handles user profile operations
type ProfileService struct {
	userRepo domain.UserRepository
}

// NewProfileService creates a new ProfileService
func NewProfileService(userRepo domain.UserRepository) *ProfileService {
	return &ProfileService{userRepo: userRepo}
}

// GetProfile retrieves the profile for the given Auth0 ID
func (s *ProfileService) GetProfile(auth0ID string) (*domain.User, error) {
	return s.userRepo.GetByAuth0ID(auth0ID)
}

// UpdateName updates the user's display name
func (s *ProfileService) UpdateName(auth0ID string, name string) (*domain.User, error) {
	return s.userRepo.UpdateName(auth0ID, name)
}
