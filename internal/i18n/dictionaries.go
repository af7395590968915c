package i18n

var commonBundle = Bundle{
	English: {
		"common.all":     "All",
		"common.unknown": "Unknown",
		"common.yes":     "Yes",
		"common.no":      "No",
		"common.search":  "Search",
	},
	Spanish: {
		"common.all":     "Todos",
		"common.unknown": "Desconocido",
		"common.yes":     "Sí",
		"common.no":      "No",
		"common.search":  "Buscar",
	},
	Portuguese: {
		"common.all":     "Todos",
		"common.unknown": "Desconhecido",
		"common.yes":     "Sim",
		"common.no":      "Não",
	},
}

var transactionsBundle = Bundle{
	English: {
		"transaction.type.deposit":      "Deposit",
		"transaction.type.withdrawal":   "Withdrawal",
		"transaction.type.transfer":     "Transfer",
		"transaction.type.payment":      "Payment",
		"transaction.type.refund":       "Refund",
		"transaction.type.compensation": "Compensation",
		"transaction.type.unknown":      "Unknown",

		"transaction.status.pending":   "Pending",
		"transaction.status.completed": "Completed",
		"transaction.status.cancelled": "Cancelled",
		"transaction.status.failed":    "Failed",
		"transaction.status.confirmed": "Confirmed",
		"transaction.status.approved":  "Approved",
		"transaction.status.rejected":  "Rejected",

		"transaction.header.id":          "Transaction ID",
		"transaction.header.date":        "Date",
		"transaction.header.type":        "Type",
		"transaction.header.status":      "Status",
		"transaction.header.amount":      "Amount",
		"transaction.header.currency":    "Currency",
		"transaction.header.wallet":      "Wallet",
		"transaction.header.customer":    "Customer",
		"transaction.header.merchant":    "Merchant",
		"transaction.header.paymentType": "Payment type",
	},
	Spanish: {
		"transaction.type.deposit":      "Depósito",
		"transaction.type.withdrawal":   "Retiro",
		"transaction.type.transfer":     "Transferencia",
		"transaction.type.payment":      "Pago",
		"transaction.type.refund":       "Reembolso",
		"transaction.type.compensation": "Compensación",
		"transaction.type.unknown":      "Desconocido",

		"transaction.status.pending":   "Pendiente",
		"transaction.status.completed": "Completada",
		"transaction.status.cancelled": "Cancelada",
		"transaction.status.failed":    "Fallida",
		"transaction.status.confirmed": "Confirmada",
		"transaction.status.approved":  "Aprobada",
		"transaction.status.rejected":  "Rechazada",

		"transaction.header.id":          "ID de transacción",
		"transaction.header.date":        "Fecha",
		"transaction.header.type":        "Tipo",
		"transaction.header.status":      "Estado",
		"transaction.header.amount":      "Monto",
		"transaction.header.currency":    "Moneda",
		"transaction.header.wallet":      "Billetera",
		"transaction.header.customer":    "Cliente",
		"transaction.header.merchant":    "Comercio",
		"transaction.header.paymentType": "Tipo de pago",
	},
	Portuguese: {
		"transaction.type.deposit":    "Depósito",
		"transaction.type.withdrawal": "Saque",
		"transaction.type.transfer":   "Transferência",
		"transaction.type.payment":    "Pagamento",
		"transaction.type.refund":     "Reembolso",

		"transaction.status.pending":   "Pendente",
		"transaction.status.completed": "Concluída",
		"transaction.status.cancelled": "Cancelada",
		"transaction.status.failed":    "Falhou",

		"transaction.header.date":   "Data",
		"transaction.header.amount": "Valor",
	},
}

var usersBundle = Bundle{
	English: {
		"user.status.active":  "Active",
		"user.status.blocked": "Blocked",
		"user.type.personal":  "Personal",
		"user.type.business":  "Business",
		"user.document.dni":   "National ID",
		"user.document.cuit":  "Tax ID",
		"user.document.pass":  "Passport",
	},
	Spanish: {
		"user.status.active":  "Activo",
		"user.status.blocked": "Bloqueado",
		"user.type.personal":  "Personal",
		"user.type.business":  "Empresa",
		"user.document.dni":   "DNI",
		"user.document.cuit":  "CUIT",
		"user.document.pass":  "Pasaporte",
	},
}

var backofficeBundle = Bundle{
	English: {
		"role.configurador": "Configurator",
		"role.compensador":  "Compensator",
		"role.operador":     "Operator",
		"role.analista":     "Analyst",
		"role.admin":        "Administrator",

		"notify.userBlocked":           "User blocked",
		"notify.userUnblocked":         "User unblocked",
		"notify.statusChanged":         "Transaction status change requested",
		"notify.transactionCancelled":  "Transaction cancellation requested",
		"notify.compensated":           "Compensation created",
		"notify.backofficeUserCreated": "Backoffice user created",
		"notify.rolesModified":         "Roles updated",
		"notify.ruleUpdated":           "Anti-fraud rule updated",
		"notify.settingsSaved":         "Settings saved",
	},
	Spanish: {
		"role.configurador": "Configurador",
		"role.compensador":  "Compensador",
		"role.operador":     "Operador",
		"role.analista":     "Analista",
		"role.admin":        "Administrador",

		"notify.userBlocked":           "Usuario bloqueado",
		"notify.userUnblocked":         "Usuario desbloqueado",
		"notify.statusChanged":         "Cambio de estado solicitado",
		"notify.transactionCancelled":  "Cancelación solicitada",
		"notify.compensated":           "Compensación creada",
		"notify.backofficeUserCreated": "Usuario de backoffice creado",
		"notify.rolesModified":         "Roles actualizados",
		"notify.ruleUpdated":           "Regla antifraude actualizada",
		"notify.settingsSaved":         "Configuración guardada",
	},
}

var fieldsBundle = Bundle{
	English: {
		"field.id":                  "User ID",
		"field.id.placeholder":      "Exact or partial ID",
		"field.name":                "Name",
		"field.name.placeholder":    "At least 3 characters",
		"field.surname":             "Surname",
		"field.surname.placeholder": "At least 3 characters",
		"field.email":               "Email",
		"field.email.placeholder":   "user@domain.com",
		"field.phone":               "Phone",
		"field.cellPhone":           "Cell phone",
		"field.document":            "Document",
		"field.documentType":        "Document type",
		"field.birthDate":           "Birth date",
		"field.address":             "Address",
		"field.city":                "City",
		"field.country":             "Country",
		"field.userType":            "User type",
		"field.status":              "Status",
		"field.createdAt":           "Created at",
	},
	Spanish: {
		"field.id":                  "ID de usuario",
		"field.id.placeholder":      "ID exacto o parcial",
		"field.name":                "Nombre",
		"field.name.placeholder":    "Al menos 3 caracteres",
		"field.surname":             "Apellido",
		"field.surname.placeholder": "Al menos 3 caracteres",
		"field.email":               "Correo electrónico",
		"field.email.placeholder":   "usuario@dominio.com",
		"field.phone":               "Teléfono",
		"field.cellPhone":           "Celular",
		"field.document":            "Documento",
		"field.documentType":        "Tipo de documento",
		"field.birthDate":           "Fecha de nacimiento",
		"field.address":             "Dirección",
		"field.city":                "Ciudad",
		"field.country":             "País",
		"field.userType":            "Tipo de usuario",
		"field.status":              "Estado",
		"field.createdAt":           "Fecha de alta",
	},
}

var errorsBundle = Bundle{
	English: {
		"errors.notFound":       "The requested resource was not found",
		"errors.badRequest":     "The request was rejected by the server",
		"errors.unauthorized":   "Your session has expired, please sign in again",
		"errors.forbidden":      "The server refused the operation",
		"errors.timeout":        "The server took too long to respond",
		"errors.unavailable":    "The service is temporarily unavailable",
		"errors.generic":        "Something went wrong, please try again",
		"errors.accessDenied":   "Access denied: you do not have permission for this action",
		"errors.validation":     "Please check the highlighted fields",
		"errors.rateLimited":    "Too many searches, please wait a moment",
		"errors.searchTooBroad": "Fill at least one search field with a valid value",
	},
	Spanish: {
		"errors.notFound":       "No se encontró el recurso solicitado",
		"errors.badRequest":     "El servidor rechazó la solicitud",
		"errors.unauthorized":   "Su sesión expiró, inicie sesión nuevamente",
		"errors.forbidden":      "El servidor rechazó la operación",
		"errors.timeout":        "El servidor tardó demasiado en responder",
		"errors.unavailable":    "El servicio no está disponible temporalmente",
		"errors.generic":        "Algo salió mal, intente nuevamente",
		"errors.accessDenied":   "Acceso denegado: no tiene permiso para esta acción",
		"errors.validation":     "Revise los campos marcados",
		"errors.rateLimited":    "Demasiadas búsquedas, espere un momento",
		"errors.searchTooBroad": "Complete al menos un campo de búsqueda con un valor válido",
	},
	Portuguese: {
		"errors.notFound":     "O recurso solicitado não foi encontrado",
		"errors.generic":      "Algo deu errado, tente novamente",
		"errors.accessDenied": "Acesso negado: você não tem permissão para esta ação",
	},
}
