package i18n

// DefaultMessages returns built-in translations for all supported locales.
// These can be overridden by loading JSON files from a directory.
func DefaultMessages() map[Locale]map[string]string {
	return map[Locale]map[string]string{
		LocaleEs: esMessages,
		LocaleEn: enMessages,
	}
}

var esMessages = map[string]string{
	// Common errors
	"error.unauthorized":      "No autenticado",
	"error.forbidden":         "Acceso denegado",
	"error.bad_request":       "Solicitud inválida",
	"error.not_found":         "Recurso no encontrado",
	"error.conflict":          "Conflicto con el estado actual",
	"error.internal":          "Error interno del servidor",
	"error.too_many_requests": "Demasiadas solicitudes. Inténtalo más tarde",
	"error.validation":        "Datos de entrada inválidos",

	// Auth
	"auth.login_failed":    "Usuario o contraseña incorrectos",
	"auth.blocked":         "Cuenta bloqueada",
	"auth.token_invalid":   "Token inválido",
	"auth.token_expired":   "La sesión ha expirado",
	"auth.wrong_password":  "La contraseña actual no es correcta",
	"auth.missing_fields":  "Faltan usuario o contraseña",
	"auth.logout_success":  "Sesión cerrada",
	"auth.admin_required":  "Se requiere acceso de administrador",
	"auth.password_policy": "La contraseña debe tener al menos 6 caracteres",

	// Contacts
	"contact.user_not_found":    "Usuario no encontrado",
	"contact.self":              "No puedes agregarte a ti mismo",
	"contact.already_added":     "Ya tienes a este contacto",
	"contact.request_sent":      "Ya enviaste una solicitud a este usuario",
	"contact.request_received":  "Este usuario ya te envió una solicitud. Revisa tus notificaciones.",
	"contact.request_not_found": "Solicitud no encontrada",
	"contact.missing_id":        "Falta el id del contacto",

	// Messages
	"message.missing_peer":       "Falta el parámetro peer",
	"message.receiver_not_found": "Destinatario no encontrado",
	"message.payload_mismatch":   "El contenido no corresponde al tipo de mensaje",
	"message.invalid_type":       "Tipo de mensaje inválido",
	"message.not_found":          "Mensaje no encontrado",
	"message.not_owner":          "Solo puedes modificar tus propios mensajes",
	"message.not_participant":    "No participas en esta conversación",
	"message.reply_invalid":      "El mensaje citado no pertenece a esta conversación",
	"message.missing_id":         "Falta el id del mensaje",
	"message.empty_content":      "Falta el contenido",

	// Profile
	"profile.nothing_to_update": "Nada que actualizar",
	"profile.username_taken":    "El nombre de usuario ya existe",
	"profile.lock_invalid":      "Clave de bloqueo incorrecta",
	"profile.lock_not_set":      "No hay clave de bloqueo configurada",
	"profile.nuked":             "Autodestrucción completada",

	// Upload
	"upload.type_not_allowed": "Tipo de archivo no permitido",
	"upload.too_large":        "El archivo supera el tamaño máximo",
	"upload.empty":            "Archivo vacío",
	"upload.invalid_target":   "Parámetro type inválido",
	"upload.storage_disabled": "Almacenamiento no configurado",

	// Admin
	"admin.invalid_action":   "Acción no válida",
	"admin.messages_cleared": "Mensajes eliminados correctamente",
	"admin.storage_cleared":  "Archivos de almacenamiento eliminados",

	// Rate limit
	"rate_limit.exceeded": "Límite de solicitudes excedido. Reintenta en %d segundos",
}

var enMessages = map[string]string{
	// Common errors
	"error.unauthorized":      "Not authenticated",
	"error.forbidden":         "Forbidden",
	"error.bad_request":       "Invalid request",
	"error.not_found":         "Resource not found",
	"error.conflict":          "Conflicts with current state",
	"error.internal":          "Internal server error",
	"error.too_many_requests": "Too many requests. Please try again later",
	"error.validation":        "Invalid input",

	// Auth
	"auth.login_failed":    "Invalid username or password",
	"auth.blocked":         "Account blocked",
	"auth.token_invalid":   "Invalid token",
	"auth.token_expired":   "Session expired",
	"auth.wrong_password":  "Current password is incorrect",
	"auth.missing_fields":  "Missing username or password",
	"auth.logout_success":  "Logged out",
	"auth.admin_required":  "Admin access required",
	"auth.password_policy": "Password must be at least 6 characters",

	// Contacts
	"contact.user_not_found":    "User not found",
	"contact.self":              "You cannot add yourself",
	"contact.already_added":     "This user is already a contact",
	"contact.request_sent":      "You already sent a request to this user",
	"contact.request_received":  "This user already sent you a request. Check your notifications.",
	"contact.request_not_found": "Request not found",
	"contact.missing_id":        "Missing contact id",

	// Messages
	"message.missing_peer":       "Missing peer param",
	"message.receiver_not_found": "Receiver not found",
	"message.payload_mismatch":   "Payload does not match message type",
	"message.invalid_type":       "Invalid message type",
	"message.not_found":          "Message not found",
	"message.not_owner":          "You can only modify your own messages",
	"message.not_participant":    "You are not part of this conversation",
	"message.reply_invalid":      "Replied message is not part of this conversation",
	"message.missing_id":         "Missing message id",
	"message.empty_content":      "Missing content",

	// Profile
	"profile.nothing_to_update": "Nothing to update",
	"profile.username_taken":    "Username already exists",
	"profile.lock_invalid":      "Invalid lock key",
	"profile.lock_not_set":      "No lock key configured",
	"profile.nuked":             "Self-destruct completed",

	// Upload
	"upload.type_not_allowed": "File type not allowed",
	"upload.too_large":        "File exceeds the maximum size",
	"upload.empty":            "Empty file",
	"upload.invalid_target":   "Invalid type parameter",
	"upload.storage_disabled": "Storage is not configured",

	// Admin
	"admin.invalid_action":   "Invalid action",
	"admin.messages_cleared": "Messages deleted",
	"admin.storage_cleared":  "Storage objects deleted",

	// Rate limit
	"rate_limit.exceeded": "Rate limit exceeded. Retry in %d seconds",
}
