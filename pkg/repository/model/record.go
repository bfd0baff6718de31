package model

import "time"

// TurnRecord is the wire shape of a turn as served by the booking backend.
// Records are taken as-is; no field is validated or coerced.
type TurnRecord struct {
	ID            string     `json:"id"`
	ClientName    string     `json:"client_name"`
	ClientPhone   *string    `json:"client_phone,omitempty"`
	Service       string     `json:"service"`
	Status        TurnStatus `json:"status"`
	EstimatedTime int        `json:"estimated_time"`
	CreatedAt     time.Time  `json:"created_at"`
	BarberID      *string    `json:"barbero_id,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}

func (r TurnRecord) Turn() Turn {
	return Turn{
		ID:            r.ID,
		ClientName:    r.ClientName,
		ClientPhone:   cloneStr(r.ClientPhone),
		Service:       r.Service,
		Status:        r.Status,
		EstimatedTime: r.EstimatedTime,
		CreatedAt:     r.CreatedAt,
		BarberID:      cloneStr(r.BarberID),
		Notes:         cloneStr(r.Notes),
	}
}

func RecordOf(t Turn) TurnRecord {
	return TurnRecord{
		ID:            t.ID,
		ClientName:    t.ClientName,
		ClientPhone:   cloneStr(t.ClientPhone),
		Service:       t.Service,
		Status:        t.Status,
		EstimatedTime: t.EstimatedTime,
		CreatedAt:     t.CreatedAt,
		BarberID:      cloneStr(t.BarberID),
		Notes:         cloneStr(t.Notes),
	}
}
