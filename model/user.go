package model

import "time"

/*

User is the owner of votes and comments. Accounts are issued elsewhere, a row
is created lazily the first time a token subject writes something.

Id: primary key, the "sub" claim of the bearer token
CreatedAt: time when entity is created
Name: display name, empty until known

*/

type User struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	Name      string
}
