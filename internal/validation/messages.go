package validation

// Messages for the user payload, keyed "<field>.<rule>".
var userMessages = map[string]string{
	"name.required":           "O campo nome é obrigatório.",
	"name.string":             "O campo nome deve ser uma string.",
	"name.min":                "O campo nome deve ter no mínimo 4 caracteres.",
	"email.required":          "O campo e-mail e obrigatório.",
	"email.email":             "Email invalido.",
	"email.string":            "O campo email deve ser uma string.",
	"email.unique":            "Esse e-mail ja esta cadastrado",
	"type_user_id.required":   "O campo type_user_id é obrigatório.",
	"type_user_id.in":         "O valor passado em type_user_id nao existe",
	"type_user_id.prohibited": "Esse campo não pode ser atualizado",
	"password.string":         "O campo senha deve ser uma string.",
	"password.min":            "O campo senha deve ter no mínimo 6 caracteres.",
}

func message(field, rule string) string {
	if m, ok := userMessages[field+"."+rule]; ok {
		return m
	}
	return "O campo " + field + " é inválido."
}
