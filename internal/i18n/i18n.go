// Package i18n holds the user-facing message catalog. The router only
// depends on the Localizer interface; this package is the default
// implementation backed by static per-locale maps.
package i18n

import "strings"

const DefaultLocale = "en"

// Localizer resolves a message key for a locale.
type Localizer interface {
	Message(locale, key string) string
}

// Catalog is a static two-level message table.
type Catalog struct {
	messages map[string]map[string]string
}

func NewCatalog() *Catalog {
	return &Catalog{messages: defaultMessages}
}

// Message returns the message for the locale, falling back to the
// default locale and finally to the key itself.
func (c *Catalog) Message(locale, key string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if m, ok := c.messages[locale]; ok {
		if msg, ok := m[key]; ok {
			return msg
		}
	}
	if m, ok := c.messages[DefaultLocale]; ok {
		if msg, ok := m[key]; ok {
			return msg
		}
	}
	return key
}

var defaultMessages = map[string]map[string]string{
	"en": {
		"processing":       "Processing with %s...",
		"limit_reached":    "Daily request limit reached. Limits reset at midnight UTC.",
		"error":            "An error occurred. Please try again.",
		"error_429":        "The AI service is overloaded right now. Please try again in a minute.",
		"error_422":        "The AI service could not process this input.",
		"error_400":        "The request was rejected by the AI service.",
		"moderation":       "Your image was flagged by content moderation (%s) and will not be processed.",
		"unsupported_file": "Unsupported file format. Supported: %s",
		"empty_file":       "The document contains no readable text.",
		"use_document":     "Please upload the receipt in original quality: send it as a file (document), not as a photo.",
		"no_answer":        "Could not read this receipt. Please try another image.",
		"context_cleared":  "Conversation history cleared.",
		"context_enabled":  "Conversation history enabled.",
		"context_disabled": "Conversation history disabled.",
		"web_enabled":      "Web search enabled.",
		"web_disabled":     "Web search disabled.",
		"model_current":    "Current model: %s",
		"pref_current":     "Current %s: %s",
		"pref_saved":       "Saved.",
		"ask_role":         "Send the new assistant role text.",
		"role_saved":       "Assistant role updated.",
		"ask_image_prompt": "Send a prompt for image generation.",
		"ask_receipt":      "Send the receipt as a file (document), or use the form for manual entry.",
		"receipt_saved":    "Receipt saved.",
		"receipt_discard":  "Receipt discarded.",
		"receipt_continue": "Add another receipt?",
		"nothing_pending":  "There is no receipt awaiting confirmation.",
		"save_failed":      "Could not save the receipt. It is still pending, try accepting again.",
		"image_failed":     "Image generation failed: %s",
		"start":            "Hi! Send me a message to chat, a voice note to transcribe, or a receipt file to track your spending. /help lists the commands.",
		"help":             "/clear - clear conversation history\n/context - toggle conversation history\n/web - toggle web search\n/model - show or set the model\n/resolution - image size\n/quality - image quality\n/role - set the assistant role\n/image - generate an image\n/receipt - add a receipt\n/report - spending report\n/form - manual entry form",
		"form_link":        "Manual entry form (valid for a limited time): %s",
		"ask_receipt_edit": "Send the corrected receipt text:\nStore: ...\nTotal: ...\nProducts:\n<name> x <quantity> - <price> - <line total>",
		"btn_accept":       "Save",
		"btn_edit":         "Edit",
		"btn_cancel":       "Discard",

		"report_period":    "Period:",
		"report_days":      "days:",
		"report_stores":    "stores:",
		"report_checks":    "receipts:",
		"report_positions": "unique items:",
		"report_total":     "Total spent in",
		"report_per_day":   "day",
		"report_categories": "By category",
		"report_empty":      "No saved receipts yet.",
	},
	"ru": {
		"processing":       "Обрабатывается (%s)...",
		"limit_reached":    "Дневной лимит запросов исчерпан. Лимиты сбрасываются в полночь UTC.",
		"error":            "Произошла ошибка. Попробуйте ещё раз.",
		"error_429":        "Сервис ИИ перегружен. Попробуйте через минуту.",
		"error_422":        "Сервис ИИ не смог обработать этот запрос.",
		"error_400":        "Запрос отклонён сервисом ИИ.",
		"moderation":       "Изображение отклонено модерацией (%s) и не будет обработано.",
		"unsupported_file": "Неподдерживаемый формат файла. Поддерживаются: %s",
		"empty_file":       "В документе нет читаемого текста.",
		"use_document":     "Загрузите чек в исходном качестве: отправьте его файлом (документом), а не фото.",
		"no_answer":        "Не удалось распознать чек. Попробуйте другое изображение.",
		"context_cleared":  "История диалога очищена.",
		"context_enabled":  "История диалога включена.",
		"context_disabled": "История диалога отключена.",
		"web_enabled":      "Веб-поиск включён.",
		"web_disabled":     "Веб-поиск отключён.",
		"model_current":    "Текущая модель: %s",
		"pref_current":     "Текущее значение %s: %s",
		"pref_saved":       "Сохранено.",
		"ask_role":         "Отправьте новый текст роли ассистента.",
		"role_saved":       "Роль ассистента обновлена.",
		"ask_image_prompt": "Отправьте запрос для генерации изображения.",
		"ask_receipt":      "Отправьте чек файлом (документом) или заполните форму вручную.",
		"receipt_saved":    "Чек сохранён.",
		"receipt_discard":  "Чек отменён.",
		"receipt_continue": "Добавить ещё один чек?",
		"nothing_pending":  "Нет чека, ожидающего подтверждения.",
		"save_failed":      "Не удалось сохранить чек. Он всё ещё ожидает подтверждения, попробуйте снова.",
		"image_failed":     "Не удалось сгенерировать изображение: %s",
		"start":            "Привет! Напишите сообщение, отправьте голосовое или файл с чеком для учёта расходов. /help — список команд.",
		"help":             "/clear - очистить историю диалога\n/context - включить/выключить историю\n/web - включить/выключить веб-поиск\n/model - показать или задать модель\n/resolution - размер изображения\n/quality - качество изображения\n/role - задать роль ассистента\n/image - сгенерировать изображение\n/receipt - добавить чек\n/report - отчёт о расходах\n/form - форма ручного ввода",
		"form_link":        "Форма ручного ввода (действует ограниченное время): %s",
		"ask_receipt_edit": "Отправьте исправленный текст чека:\nStore: ...\nTotal: ...\nProducts:\n<название> x <кол-во> - <цена> - <сумма>",
		"btn_accept":       "Сохранить",
		"btn_edit":         "Изменить",
		"btn_cancel":       "Отменить",

		"report_period":    "Период:",
		"report_days":      "дней:",
		"report_stores":    "магазинов:",
		"report_checks":    "чеков:",
		"report_positions": "уникальных позиций:",
		"report_total":     "Всего потрачено в",
		"report_per_day":   "день",
		"report_categories": "По категориям",
		"report_empty":      "Сохранённых чеков пока нет.",
	},
}
