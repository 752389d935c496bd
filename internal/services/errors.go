package services

import "errors"

// 服务层统一错误；handler 负责映射到 HTTP 状态码
var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrNotMember     = errors.New("not a member of this group")
	ErrBanned        = errors.New("banned from this group")
	ErrSelfJoin      = errors.New("cannot join your own group")
	ErrAlreadyMember = errors.New("already a member of this group")
	ErrAlreadyRated  = errors.New("already rated today in this group")
	ErrInvalidInput  = errors.New("invalid input")
	ErrJoinCodeRetry = errors.New("failed to generate a unique join code")
	ErrSongDisabled  = errors.New("song of the day feature is not configured")
)
