package config

import "testing"

func TestIsDevelopmentEnv_DevLikeEnvs(t *testing.T) {
	devLike := []string{"dev", "development", "local", "DEV", "  Local  "}

	for _, env := range devLike {
		env := env
		t.Run(env, func(t *testing.T) {
			t.Setenv(AppEnvKey, env)
			if !IsDevelopmentEnv() {
				t.Fatalf("expected %q to count as development", env)
			}
		})
	}
}

func TestIsDevelopmentEnv_ProdAndUnsetEnvs(t *testing.T) {
	nonDev := []string{"", "prod", "production", "staging", "preprod", " Production ", "qa", "test"}

	for _, env := range nonDev {
		env := env
		t.Run(env, func(t *testing.T) {
			t.Setenv(AppEnvKey, env)
			if IsDevelopmentEnv() {
				t.Fatalf("expected %q to not count as development", env)
			}
		})
	}
}
