package logger

import "go.uber.org/zap"

// Helpers de campos para mantener consistencia de naming en los logs.

func Err(err error) zap.Field { return zap.Error(err) }

func Component(name string) zap.Field { return zap.String("component", name) }

func Op(name string) zap.Field { return zap.String("op", name) }

func UserID(id string) zap.Field { return zap.String("user_id", id) }

func SessionID(id string) zap.Field { return zap.String("session_id", id) }

func AccountID(id string) zap.Field { return zap.String("account_id", id) }
