package model

import (
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	mgo "EduChat/service/mgo"
)

// Status
const (
	UserNormal int32 = 0
	UserBanned int32 = 1
	UserClosed int32 = 2
)

// User is the account master record. The chat core only reads identity and
// display fields; registration and profile editing belong to the auth
// collaborator.
type User struct {
	UserID    string `bson:"user_id" json:"userId"` // immutable primary key
	FirstName string `bson:"first_name" json:"firstName"`
	LastName  string `bson:"last_name" json:"lastName"`
	Avatar    string `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Email     string `bson:"email,omitempty" json:"-"`

	Status    int32      `bson:"status,omitempty" json:"-"`
	IsDeleted bool       `bson:"is_deleted,omitempty" json:"-"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"-"`

	CreateTime time.Time `bson:"create_time" json:"-"`
	UpdateTime time.Time `bson:"update_time" json:"-"`
}

// DisplayName is what typing/presence events carry.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.UserID
	}
}

func (u *User) GetTableName() string {
	return "user"
}

func (u *User) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(u.GetTableName())
}
