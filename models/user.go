package models

import "time"

// User - учётная запись для входа. Профиль игрока (Player) создаётся
// отдельно и привязывается к учётке.
type User struct {
	ID           int       `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	PlayerID     *int      `json:"player_id,omitempty" db:"player_id"`
	JoinDate     time.Time `json:"join_date" db:"join_date"`
}
