package dto

import (
	"time"

	domainauth "rentacar/internal/domain/auth"
	domainuser "rentacar/internal/domain/user"
)

type UserProfile struct {
	ID            string   `json:"id"`
	Email         string   `json:"email"`
	Name          string   `json:"name"`
	Roles         []string `json:"roles"`
	Phone         string   `json:"phone,omitempty"`
	NICOrPassport string   `json:"nic_or_passport,omitempty"`
	District      string   `json:"district,omitempty"`
	City          string   `json:"city,omitempty"`
}

type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      UserProfile `json:"user"`
}

func MapUser(u *domainuser.User) UserProfile {
	if u == nil {
		return UserProfile{}
	}
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, string(r))
	}
	return UserProfile{
		ID:            string(u.ID),
		Email:         u.Email,
		Name:          u.Name,
		Roles:         roles,
		Phone:         u.Profile.Phone,
		NICOrPassport: u.Profile.NICOrPassport,
		District:      u.Profile.District,
		City:          u.Profile.City,
	}
}

func MapSession(s *domainauth.Session, u *domainuser.User) Session {
	if s == nil {
		return Session{}
	}
	return Session{Token: string(s.Token), ExpiresAt: s.ExpiresAt, User: MapUser(u)}
}
