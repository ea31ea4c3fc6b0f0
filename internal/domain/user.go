package domain

// User is a registered account. Email is the store key; PasswordHash is a
// bcrypt hash, never the plaintext.
type User struct {
	Email        string `bson:"email" json:"email"`
	PasswordHash string `bson:"password" json:"-"`
}
