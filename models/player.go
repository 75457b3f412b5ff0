package models

import "time"

type Player struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	CountryCode string    `json:"country_code" db:"country_code"`
	IsBanned    bool      `json:"is_banned" db:"is_banned"`
	JoinDate    time.Time `json:"join_date" db:"join_date"`

	FriendCodes []FriendCode `json:"friend_codes,omitempty" db:"-"`
}

// FriendCode - игровой идентификатор игрока для конкретной игры.
// Игрок не может вступить в ростер или зарегистрироваться на турнир,
// пока у него нет активного кода для нужной игры.
type FriendCode struct {
	ID        int       `json:"id" db:"id"`
	PlayerID  int       `json:"player_id" db:"player_id"`
	Game      string    `json:"game" db:"game"`
	FC        string    `json:"fc" db:"fc"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	IsPrimary bool      `json:"is_primary" db:"is_primary"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
