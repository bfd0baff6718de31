package model

import (
	"context"
	"time"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleBarber Role = "barber"
	RoleClient Role = "client"
)

// User is the logged-in operator of the front desk.
type User struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Role   Role    `json:"role"`
	Avatar *string `json:"avatar,omitempty"`
}

// UserPatch carries the fields to merge into the session user; nil means untouched.
type UserPatch struct {
	Name   *string
	Email  *string
	Role   *Role
	Avatar *string
}

func (u User) Clone() User {
	if u.Avatar != nil {
		a := *u.Avatar
		u.Avatar = &a
	}
	return u
}

func (u User) Merge(p UserPatch) User {
	out := u.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Email != nil {
		out.Email = *p.Email
	}
	if p.Role != nil {
		out.Role = *p.Role
	}
	if p.Avatar != nil {
		a := *p.Avatar
		out.Avatar = &a
	}
	return out
}

type TurnStatus string

const (
	TurnWaiting    TurnStatus = "waiting"
	TurnInProgress TurnStatus = "in_progress"
	TurnCompleted  TurnStatus = "completed"
	TurnCancelled  TurnStatus = "cancelled"
)

// TurnStatuses lists every status in queue order.
var TurnStatuses = []TurnStatus{TurnWaiting, TurnInProgress, TurnCompleted, TurnCancelled}

// Turn is a walk-in queue ticket.
type Turn struct {
	ID            string
	ClientName    string
	ClientPhone   *string
	Service       string
	Status        TurnStatus
	EstimatedTime int // minutes
	CreatedAt     time.Time
	BarberID      *string
	Notes         *string
}

type TurnPatch struct {
	ClientName    *string
	ClientPhone   *string
	Service       *string
	Status        *TurnStatus
	EstimatedTime *int
	BarberID      *string
	Notes         *string
}

func (t Turn) Clone() Turn {
	t.ClientPhone = cloneStr(t.ClientPhone)
	t.BarberID = cloneStr(t.BarberID)
	t.Notes = cloneStr(t.Notes)
	return t
}

func (t Turn) Merge(p TurnPatch) Turn {
	out := t.Clone()
	if p.ClientName != nil {
		out.ClientName = *p.ClientName
	}
	if p.ClientPhone != nil {
		out.ClientPhone = cloneStr(p.ClientPhone)
	}
	if p.Service != nil {
		out.Service = *p.Service
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.EstimatedTime != nil {
		out.EstimatedTime = *p.EstimatedTime
	}
	if p.BarberID != nil {
		out.BarberID = cloneStr(p.BarberID)
	}
	if p.Notes != nil {
		out.Notes = cloneStr(p.Notes)
	}
	return out
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

type NotificationType string

const (
	NotifySuccess NotificationType = "success"
	NotifyError   NotificationType = "error"
	NotifyWarning NotificationType = "warning"
	NotifyInfo    NotificationType = "info"
)

// Notification is a toast-style message. Duration 0 means sticky.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Duration  time.Duration    `json:"duration"`
	CreatedAt time.Time        `json:"created_at"`
}

func (n Notification) Sticky() bool { return n.Duration <= 0 }

type Settings struct {
	Theme                string `json:"theme" yaml:"theme" validate:"oneof=light dark system"`
	Language             string `json:"language" yaml:"language" validate:"required"`
	NotificationsEnabled bool   `json:"notifications" yaml:"notifications"`
	SoundEnabled         bool   `json:"soundEnabled" yaml:"sound_enabled"`
	AutoRefresh          bool   `json:"autoRefresh" yaml:"auto_refresh"`
	RefreshInterval      int    `json:"refreshInterval" yaml:"refresh_interval" validate:"gte=5"` // seconds
}

func DefaultSettings() Settings {
	return Settings{
		Theme:                "system",
		Language:             "es",
		NotificationsEnabled: true,
		SoundEnabled:         true,
		AutoRefresh:          true,
		RefreshInterval:      30,
	}
}

type SettingsPatch struct {
	Theme                *string
	Language             *string
	NotificationsEnabled *bool
	SoundEnabled         *bool
	AutoRefresh          *bool
	RefreshInterval      *int
}

func (s Settings) Merge(p SettingsPatch) Settings {
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.Language != nil {
		s.Language = *p.Language
	}
	if p.NotificationsEnabled != nil {
		s.NotificationsEnabled = *p.NotificationsEnabled
	}
	if p.SoundEnabled != nil {
		s.SoundEnabled = *p.SoundEnabled
	}
	if p.AutoRefresh != nil {
		s.AutoRefresh = *p.AutoRefresh
	}
	if p.RefreshInterval != nil {
		s.RefreshInterval = *p.RefreshInterval
	}
	return s
}

type Connectivity struct {
	IsOnline bool      `json:"isOnline"`
	LastSync time.Time `json:"lastSync"`
}

type UI struct {
	Loading     bool `json:"loading"`
	SidebarOpen bool `json:"sidebarOpen"`
}

// TurnRepo is the backend collaborator that owns the authoritative queue.
type TurnRepo interface {
	ListTurns(ctx context.Context) ([]Turn, error)
	CreateTurn(ctx context.Context, t Turn) error
	UpdateTurnStatus(ctx context.Context, id string, status TurnStatus) error
	DeleteTurn(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// Service is an entry of the shop's service catalog offered when admitting a walk-in.
type Service struct {
	Key     string `yaml:"key" validate:"required"`
	Title   string `yaml:"title" validate:"required"`
	Minutes int    `yaml:"minutes" validate:"gte=0"`
}
