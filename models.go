package sightings

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Admin is a back office account. Admins authenticate with email and
// password and moderate the sighting queue.
type Admin struct {
	bun.BaseModel `bun:"table:admins,alias:adm"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	LoggedInAt    *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// UserType classifies user accounts, e.g. tourist, researcher, fisherman.
type UserType struct {
	bun.BaseModel `bun:"table:user_types,alias:utp"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull,unique" json:"name,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// User is a mobile application account backed by a Firebase identity.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FirebaseUID   string     `bun:"firebase_uid,notnull,unique" json:"firebase_uid,omitempty"`
	Username      *string    `bun:"username,unique,nullzero" json:"username,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Points        int        `bun:"points,notnull,default:0" json:"points"`
	UserTypeID    *uuid.UUID `bun:"user_type_id,nullzero,type:uuid" json:"user_type_id,omitempty"`
	UserType      *UserType  `bun:"rel:belongs-to,join:user_type_id=id" json:"user_type,omitempty"`
	LoggedInAt    *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Species is a catalog entry sightings can reference.
type Species struct {
	bun.BaseModel  `bun:"table:species,alias:spc"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	CommonName     string     `bun:"common_name,notnull" json:"common_name,omitempty"`
	ScientificName string     `bun:"scientific_name,notnull,unique" json:"scientific_name,omitempty"`
	Description    string     `bun:"description" json:"description,omitempty"`
	ImageURL       string     `bun:"image_url" json:"image_url,omitempty"`
	// Sighting season bounds as calendar months, 1 through 12. Both nil
	// when the species has no seasonal pattern.
	SightingStartMonth  *int       `bun:"sighting_start_month,nullzero" json:"sighting_start_month,omitempty"`
	SightingEndMonth    *int       `bun:"sighting_end_month,nullzero" json:"sighting_end_month,omitempty"`
	HighSeasonSpecimens *int       `bun:"high_season_specimens,nullzero" json:"high_season_specimens,omitempty"`
	CreatedAt           *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt           *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Post is a sighting report. Its Status field drives the moderation
// workflow and is only ever mutated through the state machine.
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:pst"`
	ID            uuid.UUID    `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID    `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User        `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	SpeciesID     *uuid.UUID   `bun:"species_id,nullzero,type:uuid" json:"species_id,omitempty"`
	Species       *Species     `bun:"rel:belongs-to,join:species_id=id" json:"species,omitempty"`
	Title         string       `bun:"title,notnull" json:"title,omitempty"`
	Description   string       `bun:"description" json:"description,omitempty"`
	Status        PostStatus   `bun:"status,notnull" json:"status,omitempty"`
	SightedAt     *time.Time   `bun:"sighted_at,nullzero" json:"sighted_at,omitempty"`
	Images        []*PostImage `bun:"rel:has-many,join:id=post_id" json:"images,omitempty"`
	CreatedAt     *time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time   `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time   `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// FirstImage returns the earliest attached image or nil.
func (p *Post) FirstImage() *PostImage {
	if p == nil || len(p.Images) == 0 {
		return nil
	}
	return p.Images[0]
}

// OwnedBy reports whether the post belongs to the given user id.
func (p *Post) OwnedBy(userID uuid.UUID) bool {
	return p != nil && p.UserID == userID
}

// PostImage is a geolocated photo attached to a sighting.
type PostImage struct {
	bun.BaseModel `bun:"table:post_images,alias:pim"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	PostID        uuid.UUID  `bun:"post_id,notnull,type:uuid" json:"post_id,omitempty"`
	URL           string     `bun:"url,notnull" json:"url,omitempty"`
	Latitude      *float64   `bun:"latitude" json:"latitude,omitempty"`
	Longitude     *float64   `bun:"longitude" json:"longitude,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}
