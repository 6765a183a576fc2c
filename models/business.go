package models

import "time"

// BusinessProfile représente le profil vendeur utilisé comme contexte de génération
type BusinessProfile struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Category         string    `json:"category"`
	Location         string    `json:"location"`
	SubscriptionTier string    `json:"subscription_tier"`
	CreatedAt        time.Time `json:"created_at"`
}
