package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
// Сгруппированы по "виду": слой запросов превращает вид в статус
// (404/409/400/401/403/429), ядру достаточно сентинелов.
var (
	// Ресурс не найден
	ErrNotFound           = errors.New("requested resource not found")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrRosterNotFound     = errors.New("roster not found")
	ErrTransferNotFound   = errors.New("transfer not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrSquadNotFound      = errors.New("squad not found")
	ErrRequestNotFound    = errors.New("edit request not found")
	ErrUserNotFound       = errors.New("user not found")

	// Конфликты (уникальность, вместимость)
	ErrTeamNameConflict    = errors.New("team name is already in use")
	ErrRosterNameConflict  = errors.New("a roster with the same effective name already exists for this team, game and mode")
	ErrAlreadyMember       = errors.New("player already has an active membership in this roster")
	ErrAlreadyRegistered   = errors.New("player already has a confirmed registration for this tournament")
	ErrAlreadyInvited      = errors.New("player already has an unresolved invite or transfer to this roster")
	ErrSquadFull           = errors.New("squad has reached the maximum allowed size")
	ErrRosterAlreadyLinked = errors.New("roster is already linked to this squad")
	ErrUserEmailConflict   = errors.New("email address is already in use")
	ErrFriendCodeConflict  = errors.New("friend code is already registered for this game")

	// Невыполненные предусловия (валидация, бизнес-правила)
	ErrRegistrationsClosed      = errors.New("tournament registrations are closed")
	ErrNotEligible              = errors.New("player has no active friend code for this game")
	ErrPlayerBanned             = errors.New("player is banned")
	ErrMiiNameRequired          = errors.New("mii name is required for this tournament")
	ErrFCSelectionRequired      = errors.New("a single friend code must be selected for this tournament")
	ErrSquadTagNotInMiiName     = errors.New("squad tag must be included in the mii name")
	ErrSquadNameRequired        = errors.New("squad name is required for this tournament")
	ErrSquadTagRequired         = errors.New("squad tag is required for this tournament")
	ErrNotTeamMember            = errors.New("player is not a member of a roster backing this squad")
	ErrTeamsOnly                = errors.New("this tournament only accepts team registrations")
	ErrSquadRequired            = errors.New("this tournament requires registering as part of a squad")
	ErrSoloOnly                 = errors.New("this tournament does not accept squad registrations")
	ErrBaggerNotEnabled         = errors.New("bagger clause is not enabled for this tournament")
	ErrNotYetAccepted           = errors.New("transfer has not been accepted by the player yet")
	ErrAlreadyApproved          = errors.New("transfer has already been approved")
	ErrTransferResolved         = errors.New("transfer has already been resolved")
	ErrNotAMember               = errors.New("player has no active membership in the source roster")
	ErrNotApprovedYet           = errors.New("entity is not approved yet")
	ErrCaptainMustTransferFirst = errors.New("squad captain must transfer captaincy or withdraw the squad first")
	ErrInviteNotPending         = errors.New("registration is not a pending invite")

	// Доступ
	ErrNotOwner           = errors.New("operation is only allowed for the invited player")
	ErrNotCaptain         = errors.New("operation is only allowed for the squad captain")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")

	// Троттлинг
	ErrThrottled = errors.New("a request for this entity was already submitted recently")

	// Внутреннее нарушение инварианта: наружу уходит только при баге.
	ErrInvariantViolation = errors.New("internal invariant violation")
)
