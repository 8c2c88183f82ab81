package auth

const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleHR       = "hr"
)

const (
	PermEmployeesRead    = "employees.read"
	PermEmployeesWrite   = "employees.write"
	PermAttendanceRead   = "attendance.read"
	PermAttendanceWrite  = "attendance.write"
	PermLeaveRead        = "leave.read"
	PermLeaveWrite       = "leave.write"
	PermLeaveApprove     = "leave.approve"
	PermPayrollRead      = "payroll.read"
	PermPayrollWrite     = "payroll.write"
	PermPayrollGenerate  = "payroll.generate"
	PermPayrollLock      = "payroll.lock"
	PermReportsRead      = "reports.read"
	PermAuditRead        = "audit.read"
	PermSettingsWrite    = "settings.write"
	PermNotificationsUse = "notifications.use"
)

var DefaultPermissions = []string{
	PermEmployeesRead,
	PermEmployeesWrite,
	PermAttendanceRead,
	PermAttendanceWrite,
	PermLeaveRead,
	PermLeaveWrite,
	PermLeaveApprove,
	PermPayrollRead,
	PermPayrollWrite,
	PermPayrollGenerate,
	PermPayrollLock,
	PermReportsRead,
	PermAuditRead,
	PermSettingsWrite,
	PermNotificationsUse,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermEmployeesRead,
		PermAttendanceRead,
		PermLeaveRead,
		PermLeaveWrite,
		PermPayrollRead,
		PermReportsRead,
		PermNotificationsUse,
	},
	RoleManager: {
		PermEmployeesRead,
		PermAttendanceRead,
		PermAttendanceWrite,
		PermLeaveRead,
		PermLeaveWrite,
		PermLeaveApprove,
		PermPayrollRead,
		PermReportsRead,
		PermNotificationsUse,
	},
	RoleHR: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermAttendanceRead,
		PermAttendanceWrite,
		PermLeaveRead,
		PermLeaveWrite,
		PermLeaveApprove,
		PermPayrollRead,
		PermPayrollWrite,
		PermPayrollGenerate,
		PermPayrollLock,
		PermReportsRead,
		PermAuditRead,
		PermSettingsWrite,
		PermNotificationsUse,
	},
}
