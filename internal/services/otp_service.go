package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"gettogether/internal/status"
	"gettogether/utils"
)

// OTPMailer delivers the one-time code; notify.Notifier implements it with a
// fixed-attempt retry.
type OTPMailer interface {
	SendOTPMail(email, code string, attempts int) error
}

// OTPService backs the admin login second factor. Only a bcrypt hash of the
// code is kept, in Redis, with a TTL.
type OTPService struct {
	Redis        *redis.Client
	mailer       OTPMailer
	length       int
	ttl          time.Duration
	mailAttempts int
}

func NewOTPService(redisClient *redis.Client, mailer OTPMailer, length int, ttl time.Duration, mailAttempts int) *OTPService {
	return &OTPService{
		Redis:        redisClient,
		mailer:       mailer,
		length:       length,
		ttl:          ttl,
		mailAttempts: mailAttempts,
	}
}

func otpKey(email string) string {
	return fmt.Sprintf("otp:%s", email)
}

// Request generates a code, stores its hash and mails it.
func (s *OTPService) Request(ctx context.Context, email string) error {
	code, err := utils.GenerateOTP(s.length)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.Redis.Set(ctx, otpKey(email), string(hash), s.ttl).Err(); err != nil {
		return err
	}

	return s.mailer.SendOTPMail(email, code, s.mailAttempts)
}

// Verify compares the submitted code against the stored hash and consumes it
// on success.
func (s *OTPService) Verify(ctx context.Context, email, code string) error {
	hash, err := s.Redis.Get(ctx, otpKey(email)).Result()
	if err != nil {
		return status.ErrOTPNotFound
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) != nil {
		return status.ErrOTPMismatch
	}

	s.Redis.Del(ctx, otpKey(email))
	return nil
}
