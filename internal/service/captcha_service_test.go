package service

import (
	"errors"
	"testing"

	"github.com/lumipure-api/internal/config"
	"github.com/lumipure-api/internal/constants"
)

func TestCaptchaDisabledSceneSkipsVerification(t *testing.T) {
	svc := NewCaptchaService(config.CaptchaConfig{Scenes: config.CaptchaSceneConfig{Login: true}})
	if err := svc.Verify(constants.CaptchaSceneRegister, CaptchaVerifyPayload{}); err != nil {
		t.Fatalf("register scene disabled should pass, got %v", err)
	}
	if err := svc.Verify(constants.CaptchaSceneLogin, CaptchaVerifyPayload{}); !errors.Is(err, ErrCaptchaRequired) {
		t.Fatalf("want ErrCaptchaRequired got %v", err)
	}
}

func TestCaptchaGenerateAndVerify(t *testing.T) {
	svc := NewCaptchaService(config.CaptchaConfig{Scenes: config.CaptchaSceneConfig{Login: true}})
	challenge, err := svc.GenerateImageChallenge()
	if err != nil {
		t.Fatalf("generate captcha failed: %v", err)
	}
	if challenge.CaptchaID == "" || challenge.ImageBase64 == "" {
		t.Fatalf("challenge should carry id and image: %+v", challenge)
	}

	answer := svc.store.Get(challenge.CaptchaID, false)
	if answer == "" {
		t.Fatalf("store should hold the answer")
	}
	if err := svc.Verify(constants.CaptchaSceneLogin, CaptchaVerifyPayload{CaptchaID: challenge.CaptchaID, CaptchaCode: "wrong"}); !errors.Is(err, ErrCaptchaInvalid) {
		t.Fatalf("wrong code want ErrCaptchaInvalid got %v", err)
	}
}

func TestCaptchaChallengeUnavailableWhenDisabled(t *testing.T) {
	svc := NewCaptchaService(config.CaptchaConfig{})
	if _, err := svc.GenerateImageChallenge(); !errors.Is(err, ErrCaptchaUnavailable) {
		t.Fatalf("want ErrCaptchaUnavailable got %v", err)
	}
}
