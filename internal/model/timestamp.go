package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout соответствует формату дат сервиса: yyyy-MM-ddTHH:mm:ss.SSSZ.
// Дробная часть секунды обязательна и состоит ровно из трёх цифр.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// numericZoneLayout принимает зону без двоеточия, например +0000.
const numericZoneLayout = "2006-01-02T15:04:05.000-0700"

// Timestamp хранит момент времени и кодируется в JSON в формате сервиса.
type Timestamp struct {
	time.Time
}

// ParseTimestamp разбирает строку в формате TimestampLayout. Зона допускается и в виде +hhmm.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err == nil {
		return t, nil
	}
	if t, numErr := time.Parse(numericZoneLayout, s); numErr == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
}

// String возвращает момент времени в формате сервиса, в UTC.
func (t Timestamp) String() string {
	return t.UTC().Format(TimestampLayout)
}

// UnmarshalJSON декодирует строку формата сервиса; любая другая форма считается ошибкой.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalJSON кодирует момент времени в формате сервиса.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}
