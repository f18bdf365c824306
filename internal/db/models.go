package db

import "time"

// Job is the server-side view of a unit of work routed to a compute client.
// loc is the filesystem directory holding the job's files; it is unique
// across active jobs and created before the row transitions out of Queued.
type Job struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	UserID    int64  `gorm:"not null"`
	Service   string `gorm:"not null"`
	Status    string `gorm:"not null"`
	Loc       string `gorm:"not null"`
	DestID    int64  `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
}

func (Job) TableName() string { return "jobs" }

// Payload is the client-side view of a unit of work received from an
// upstream server. Loc is nullable because a Payload starts life as
// Pending with no directory until prepare() runs (see §4.8 and §9).
type Payload struct {
	ID        uint64  `gorm:"primaryKey;autoIncrement"`
	Status    string  `gorm:"not null"`
	Loc       *string `gorm:""`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`

	// Inputs is transient and never persisted — gorm:"-" keeps it out of
	// the mapped columns entirely. The submit handler does not use it: it
	// accumulates its input files in a local slice and passes them to
	// prepare() directly.
	Inputs []InputFile `gorm:"-"`
}

func (Payload) TableName() string { return "payloads" }

// InputFile is one queued (filename, bytes) pair accumulated during
// multipart intake, before it is written to disk by prepare().
type InputFile struct {
	Name  string
	Bytes []byte
}
