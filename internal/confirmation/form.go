package confirmation

import (
	"errors"

	"github.com/iurnickita/goodsreserv/internal/apiclient"
	"github.com/iurnickita/goodsreserv/internal/model"
)

var (
	ErrUnknownField   = errors.New("unknown confirmation field")
	ErrWrongFieldType = errors.New("wrong confirmation field type")
)

// Form поля подтверждения одного этапа в порядке требований товара
type Form struct {
	phase  model.Phase
	fields []Field
	byID   map[model.RequirementID]Field
}

// NewForm пустая форма; требования неизвестного типа пропускаются
func NewForm(phase model.Phase, reqs []model.ConfirmationRequirement) *Form {
	f := &Form{phase: phase, byID: make(map[model.RequirementID]Field, len(reqs))}
	for _, req := range reqs {
		field, err := NewField(req)
		if err != nil {
			continue
		}
		f.fields = append(f.fields, field)
		f.byID[req.ID] = field
	}
	return f
}

func (f *Form) Phase() model.Phase {
	return f.phase
}

func (f *Form) Fields() []Field {
	return f.fields
}

func (f *Form) Field(id model.RequirementID) (Field, bool) {
	field, ok := f.byID[id]
	return field, ok
}

// SetText значение текстового поля
func (f *Form) SetText(id model.RequirementID, value string) error {
	field, ok := f.byID[id]
	if !ok {
		return ErrUnknownField
	}
	text, ok := field.(*TextField)
	if !ok {
		return ErrWrongFieldType
	}
	text.Value = value
	return nil
}

// Attach прикрепляет файл к полю фото или видео.
// Файл больше допустимого отклоняется, прежнее вложение остается.
func (f *Form) Attach(id model.RequirementID, a Attachment) error {
	field, ok := f.byID[id]
	if !ok {
		return ErrUnknownField
	}
	switch m := field.(type) {
	case *PhotoField:
		return m.attach(a, MaxPhotoSize)
	case *VideoField:
		return m.attach(a, MaxVideoSize)
	case *TextField:
		return ErrWrongFieldType
	default:
		return ErrWrongFieldType
	}
}

// Validate первая ошибка заполнения по порядку полей
func (f *Form) Validate() error {
	for _, field := range f.fields {
		if err := field.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Submission данные для отправки
func (f *Form) Submission() apiclient.ConfirmationSubmission {
	sub := apiclient.ConfirmationSubmission{
		Phase:   f.phase,
		Entries: make(map[model.RequirementID]apiclient.ConfirmationEntry, len(f.fields)),
	}
	for _, field := range f.fields {
		sub.Entries[field.Requirement().ID] = field.Entry()
	}
	return sub
}
