package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/howufeel/howufeel/internal/models"
	"github.com/howufeel/howufeel/internal/utils"
	pkgutils "github.com/howufeel/howufeel/pkg/utils"
)

// UserStore 用户服务依赖的仓储能力
type UserStore interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	ExistsByUserName(username string) (bool, error)
	ExistsByEmail(email string) (bool, error)
	Update(user *models.User) error
	Delete(id uint) error
}

// UserService 用户服务
type UserService struct {
	userStore UserStore
}

// NewUserService 创建用户服务实例
func NewUserService(userStore UserStore) *UserService {
	return &UserService{userStore: userStore}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	UserName    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	UserName string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest 更新个人信息请求；email 不可变更
type UpdateProfileRequest struct {
	UserName    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// UserDTO 用户数据传输对象
type UserDTO struct {
	ID          uint   `json:"id"`
	UserName    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedAt   string `json:"created_at"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	User  UserDTO `json:"user"`
	Token string  `json:"token"`
}

func toUserDTO(user *models.User) UserDTO {
	return UserDTO{
		ID:          user.ID,
		UserName:    user.UserName,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// Register 注册新用户
func (s *UserService) Register(req *RegisterRequest) (*UserDTO, error) {
	if !utils.ValidateUserName(req.UserName) {
		return nil, errors.New("invalid username format")
	}
	if !utils.ValidateEmail(req.Email) {
		return nil, errors.New("invalid email format")
	}
	if !utils.ValidatePassword(req.Password) {
		return nil, errors.New("password must be at least 8 characters")
	}

	existsUserName, err := s.userStore.ExistsByUserName(req.UserName)
	if err != nil {
		return nil, err
	}
	if existsUserName {
		return nil, errors.New("username already exists")
	}

	existsEmail, err := s.userStore.ExistsByEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if existsEmail {
		return nil, errors.New("email already exists")
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		UserName:     req.UserName,
		Email:        req.Email,
		PasswordHash: passwordHash,
		DisplayName:  req.DisplayName,
	}
	if user.DisplayName == "" {
		user.DisplayName = req.UserName
	}

	if err := s.userStore.Create(user); err != nil {
		return nil, err
	}

	dto := toUserDTO(user)
	return &dto, nil
}

// Login 登录并签发 token
func (s *UserService) Login(req *LoginRequest) (*LoginResponse, error) {
	user, err := s.userStore.GetByUsername(req.UserName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid username or password")
		}
		return nil, err
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return nil, errors.New("invalid username or password")
	}

	token, err := pkgutils.GenerateToken(user.ID, user.UserName, user.Email)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		User:  toUserDTO(user),
		Token: token,
	}, nil
}

// GetProfile 获取个人信息
func (s *UserService) GetProfile(userID uint) (*UserDTO, error) {
	user, err := s.userStore.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	dto := toUserDTO(user)
	return &dto, nil
}

// UpdateProfile 更新个人信息；email 创建后不可变更，这里根本不接收
func (s *UserService) UpdateProfile(userID uint, req *UpdateProfileRequest) (*UserDTO, error) {
	user, err := s.userStore.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.UserName != "" && req.UserName != user.UserName {
		if !utils.ValidateUserName(req.UserName) {
			return nil, errors.New("invalid username format")
		}
		exists, err := s.userStore.ExistsByUserName(req.UserName)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, errors.New("username already exists")
		}
		user.UserName = req.UserName
	}

	if req.DisplayName != "" {
		user.DisplayName = req.DisplayName
	}

	if err := s.userStore.Update(user); err != nil {
		return nil, err
	}

	dto := toUserDTO(user)
	return &dto, nil
}

// ChangePassword 修改密码
func (s *UserService) ChangePassword(userID uint, req *ChangePasswordRequest) error {
	user, err := s.userStore.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if !utils.CheckPassword(user.PasswordHash, req.OldPassword) {
		return errors.New("old password is incorrect")
	}
	if !utils.ValidatePassword(req.NewPassword) {
		return errors.New("password must be at least 8 characters")
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.userStore.Update(user)
}

// Cancel 注销账号
func (s *UserService) Cancel(userID uint, password string) error {
	user, err := s.userStore.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return errors.New("password is incorrect")
	}
	return s.userStore.Delete(userID)
}
