package controllers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/modelboard/modelboard/app/repository"
	"github.com/modelboard/modelboard/internal/pkg/metrics/counter"
	"github.com/modelboard/modelboard/internal/pkg/utils"
	"gorm.io/gorm"
)

var userRepos *repository.Repositories

// InitializeUserController wires the repositories for the public profile
// endpoint.
func InitializeUserController(repos *repository.Repositories) {
	userRepos = repos
}

type profileView struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Bio          string `json:"bio,omitempty"`
	AvatarURL    string `json:"avatar_url"`
	Location     string `json:"location,omitempty"`
	ProfileViews int64  `json:"profile_views"`
	Entitled     bool   `json:"entitled"`
}

// HandleUserProfile returns the public directory profile for one model.
// View counting is best-effort: a Redis hiccup never fails the request.
func HandleUserProfile(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil || userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_user_id"})
	}

	user, err := userRepos.User.GetByID(uint(userID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user_not_found"})
		}
		log.Printf("profile lookup failed for user %d: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "profile_lookup_failed"})
	}
	if !user.IsActive() {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user_not_found"})
	}

	entitled := false
	if sub, err := userRepos.Subscription.GetByUserID(user.ID); err == nil {
		entitled = sub.IsEntitled(time.Now())
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("subscription lookup failed for user %d: %v", user.ID, err)
	}

	if err := counter.AddProfileView(user.ID); err != nil {
		log.Printf("failed to count profile view for user %d: %v", user.ID, err)
	}

	return c.JSON(profileView{
		ID:           user.ID,
		Name:         user.Name,
		Bio:          user.Bio,
		AvatarURL:    utils.AvatarURL(user.AvatarURL, user.Email, 200),
		Location:     user.Location,
		ProfileViews: user.ProfileViews,
		Entitled:     entitled,
	})
}
