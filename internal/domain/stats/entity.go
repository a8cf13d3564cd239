// Package stats содержит доменную модель статистики пользователя MoodGarden.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
//
// Записи статистики принадлежат внешнему хранилищу и непрерывно мутируются
// другими частями системы (чекины настроения, открытие элементов, level-up).
// Движок рейтинга читает их как снапшот и никогда не изменяет.
package stats

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// TelegramID представляет уникальный идентификатор пользователя Telegram.
// Это стабильный идентификатор записи статистики и финальный tie-break рейтинга.
type TelegramID int64

// IsValid проверяет, что TelegramID положительный.
func (t TelegramID) IsValid() bool {
	return t > 0
}

// Int64 возвращает числовое представление.
func (t TelegramID) Int64() int64 {
	return int64(t)
}

// ══════════════════════════════════════════════════════════════════════════════
// STAT RECORD
// ══════════════════════════════════════════════════════════════════════════════

// StatRecord - одна строка статистики пользователя из внешнего хранилища.
// Read-only для движка рейтинга.
//
// Числовые счётчики типизированы как any: исходное хранилище нестрого
// типизировано, поэтому значение может прийти числом, строкой или мусором.
// Приведение выполняется через CoerceNumber в момент извлечения.
type StatRecord struct {
	// TelegramID - стабильный уникальный идентификатор пользователя.
	TelegramID TelegramID

	// Отображаемые поля профиля.
	FirstName string
	LastName  string
	Username  string
	AvatarURL string
	Theme     string

	// Счётчики прогресса (нестрого типизированы, см. CoerceNumber).
	Level             any
	Experience        any
	CurrentStreak     any
	LongestStreak     any
	TotalElements     any
	RareElementsFound any

	// PrivacySettings - сырое значение настроек приватности: может быть
	// map, JSON-строкой, []byte или nil. Нормализуется через Privacy().
	PrivacySettings any

	// StreakLastCheckin - дата последнего чекина, поддерживающего streak.
	StreakLastCheckin *time.Time

	// LastVisitDate - момент последнего визита в приложение.
	LastVisitDate *time.Time

	// UpdatedAt - момент последнего изменения записи хранилищем.
	UpdatedAt time.Time
}

// Privacy возвращает нормализованные настройки приватности записи.
func (r *StatRecord) Privacy() PrivacySettings {
	return ParsePrivacySettings(r.PrivacySettings)
}

// DisplayName возвращает имя для отображения: имя+фамилия, иначе username.
func (r *StatRecord) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName))
	if name != "" {
		return name
	}
	return r.Username
}

// ══════════════════════════════════════════════════════════════════════════════
// NUMERIC COERCION
// ══════════════════════════════════════════════════════════════════════════════

// CoerceNumber приводит нестрого типизированное значение к float64.
// Никогда не паникует и никогда не превращает нечисловое значение в NaN:
// отсутствующие и нечисловые значения становятся 0.
//
// Уже числовые значения проходят как есть, включая NaN/Infinity - хранилище
// допускает их в double precision колонках, и решение об исключении такой
// записи принимает ранкер, а не коэрция.
func CoerceNumber(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	case bool:
		// Булево в числовой колонке - мусор, а не число.
		return 0
	default:
		return 0
	}
}

// IsFinite проверяет, что значение пригодно для ранжирования.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ══════════════════════════════════════════════════════════════════════════════
// PRIVACY SETTINGS
// ══════════════════════════════════════════════════════════════════════════════

// PrivacySettings - нормализованные настройки приватности пользователя.
// Каждый флаг по умолчанию true (видимый), если значение отсутствует,
// равно null или не является булевым.
type PrivacySettings struct {
	ShowProfile      bool
	ShowGarden       bool
	ShowAchievements bool
}

// DefaultPrivacySettings возвращает настройки "всё видимо".
func DefaultPrivacySettings() PrivacySettings {
	return PrivacySettings{
		ShowProfile:      true,
		ShowGarden:       true,
		ShowAchievements: true,
	}
}

// ParsePrivacySettings нормализует сырое значение настроек приватности.
// Принимает map, JSON-строку, []byte или nil; любой мусор даёт настройки
// по умолчанию. Функция тотальна - она никогда не возвращает ошибку.
func ParsePrivacySettings(raw any) PrivacySettings {
	settings := DefaultPrivacySettings()

	var m map[string]any
	switch v := raw.(type) {
	case nil:
		return settings
	case map[string]any:
		m = v
	case string:
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return settings
		}
	case []byte:
		if err := json.Unmarshal(v, &m); err != nil {
			return settings
		}
	default:
		return settings
	}

	if m == nil {
		return settings
	}

	if b, ok := m["showProfile"].(bool); ok {
		settings.ShowProfile = b
	}
	if b, ok := m["showGarden"].(bool); ok {
		settings.ShowGarden = b
	}
	if b, ok := m["showAchievements"].(bool); ok {
		settings.ShowAchievements = b
	}

	return settings
}
