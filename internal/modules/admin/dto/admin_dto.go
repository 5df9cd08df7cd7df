package dto

import userDto "anoa.com/classhub/internal/modules/user/dto"

type DashboardResponse struct {
	Users      []userDto.UserResponse `json:"users"`
	TotalUsers int                    `json:"total_users"`
	TotalNotes int64                  `json:"total_notes"`
}
