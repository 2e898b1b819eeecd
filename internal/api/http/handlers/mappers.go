package handlers

import (
	"github.com/ivovalerieviliev/help-desk-sub001/internal/api/dto"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/service"
)

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      string(user.Role),
		Active:    user.Active,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func ticketResponse(view *service.TicketView) dto.TicketResponse {
	ticket := view.Ticket
	tags := ticket.Tags
	if tags == nil {
		tags = []string{}
	}
	resp := dto.TicketResponse{
		ID:          ticket.ID,
		Key:         ticket.Key,
		AuthorID:    ticket.AuthorID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Status:      ticket.Status,
		Priority:    ticket.Priority,
		Category:    ticket.Category,
		AssigneeID:  ticket.AssigneeID,
		DueDate:     ticket.DueDate,
		Tags:        tags,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
	if view.SLA != nil {
		sla := slaResponse(view.SLA)
		resp.SLA = &sla
	}
	return resp
}

func ticketResponses(views []service.TicketView) []dto.TicketResponse {
	items := make([]dto.TicketResponse, 0, len(views))
	for i := range views {
		items = append(items, ticketResponse(&views[i]))
	}
	return items
}

func slaResponse(status *domain.SLAStatus) dto.SLAStatusResponse {
	return dto.SLAStatusResponse{
		FirstResponse:    status.FirstResponse,
		Resolution:       status.Resolution,
		FirstResponseDue: status.FirstResponseDue,
		ResolutionDue:    status.ResolutionDue,
		FirstResponseAt:  status.FirstResponseAt,
		ResolvedAt:       status.ResolvedAt,
		EvaluatedAt:      status.EvaluatedAt,
	}
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:         comment.ID,
		TicketID:   comment.TicketID,
		AuthorID:   comment.AuthorID,
		Body:       comment.Body,
		IsInternal: comment.IsInternal,
		CreatedAt:  comment.CreatedAt,
	}
}

func historyResponses(entries []domain.HistoryEntry) []dto.TicketHistoryResponse {
	resp := make([]dto.TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.TicketHistoryResponse{
			ID:        entry.ID,
			Action:    string(entry.Action),
			OldValue:  entry.OldValue,
			NewValue:  entry.NewValue,
			ActorID:   entry.ActorID,
			CreatedAt: entry.CreatedAt,
		})
	}
	return resp
}

func organizationResponse(org *domain.Organization) dto.OrganizationResponse {
	domains := org.AllowedDomains
	if domains == nil {
		domains = []string{}
	}
	return dto.OrganizationResponse{
		ID:             org.ID,
		Name:           org.Name,
		Slug:           org.Slug,
		Description:    org.Description,
		AllowedDomains: domains,
		Settings:       org.Settings,
		Status:         string(org.Status),
		CreatedAt:      org.CreatedAt,
		UpdatedAt:      org.UpdatedAt,
	}
}

func organizationResponses(orgs []domain.Organization) []dto.OrganizationResponse {
	items := make([]dto.OrganizationResponse, 0, len(orgs))
	for i := range orgs {
		items = append(items, organizationResponse(&orgs[i]))
	}
	return items
}

func memberResponse(member *domain.OrganizationMember) dto.MemberResponse {
	return dto.MemberResponse{
		OrganizationID: member.OrganizationID,
		UserID:         member.UserID,
		IsAdmin:        member.IsAdmin,
		CreatedAt:      member.CreatedAt,
	}
}

func memberResponses(members []domain.OrganizationMember) []dto.MemberResponse {
	items := make([]dto.MemberResponse, 0, len(members))
	for i := range members {
		items = append(items, memberResponse(&members[i]))
	}
	return items
}

func queueFilterResponse(filter *domain.QueueFilter) dto.QueueFilterResponse {
	return dto.QueueFilterResponse{
		ID:             filter.ID,
		Name:           filter.Name,
		Description:    filter.Description,
		FilterType:     string(filter.FilterType),
		UserID:         filter.UserID,
		OrganizationID: filter.OrganizationID,
		Config:         filter.Config,
		SortField:      filter.SortField,
		SortOrder:      filter.SortOrder,
		IsDefault:      filter.IsDefault,
		CreatedBy:      filter.CreatedBy,
		CreatedAt:      filter.CreatedAt,
		UpdatedAt:      filter.UpdatedAt,
	}
}

func actionItemResponse(item *domain.ActionItem) dto.ActionItemResponse {
	return dto.ActionItemResponse{
		ID:          item.ID,
		Description: item.Description,
		AssigneeID:  item.AssigneeID,
		Completed:   item.Completed,
		CompletedAt: item.CompletedAt,
		CreatedAt:   item.CreatedAt,
	}
}

func handoverResponse(handover *domain.Handover) dto.HandoverResponse {
	tickets := make([]dto.HandoverTicketResponse, 0, len(handover.Tickets))
	for _, t := range handover.Tickets {
		tickets = append(tickets, dto.HandoverTicketResponse{TicketID: t.TicketID, Position: t.Position, Note: t.Note})
	}
	items := make([]dto.ActionItemResponse, 0, len(handover.ActionItems))
	for i := range handover.ActionItems {
		items = append(items, actionItemResponse(&handover.ActionItems[i]))
	}
	return dto.HandoverResponse{
		ID:          handover.ID,
		AuthorID:    handover.AuthorID,
		Title:       handover.Title,
		ShiftNotes:  handover.ShiftNotes,
		Status:      string(handover.Status),
		ReviewedBy:  handover.ReviewedBy,
		ReviewedAt:  handover.ReviewedAt,
		Tickets:     tickets,
		ActionItems: items,
		CreatedAt:   handover.CreatedAt,
		UpdatedAt:   handover.UpdatedAt,
	}
}

func buckets(in []domain.CountBucket) []dto.CountBucketResponse {
	out := make([]dto.CountBucketResponse, 0, len(in))
	for _, b := range in {
		out = append(out, dto.CountBucketResponse{Key: b.Key, Count: b.Count})
	}
	return out
}

func analyticsResponse(overview *domain.AnalyticsOverview) dto.AnalyticsOverviewResponse {
	daily := make([]dto.DailyVolumeResponse, 0, len(overview.Daily))
	for _, d := range overview.Daily {
		daily = append(daily, dto.DailyVolumeResponse{Day: d.Day.UTC().Format("2006-01-02"), Count: d.Count})
	}
	agents := make([]dto.AgentWorkloadResponse, 0, len(overview.Agents))
	for _, a := range overview.Agents {
		agents = append(agents, dto.AgentWorkloadResponse{AgentID: a.AgentID, Name: a.Name, Assigned: a.Assigned, Resolved: a.Resolved})
	}
	return dto.AnalyticsOverviewResponse{
		From:       overview.From,
		To:         overview.To,
		Total:      overview.Total,
		ByStatus:   buckets(overview.ByStatus),
		ByPriority: buckets(overview.ByPriority),
		ByCategory: buckets(overview.ByCategory),
		Daily:      daily,
		Agents:     agents,
		SLA: dto.SLASummaryResponse{
			Tracked:                 overview.SLA.Tracked,
			FirstResponseBreached:   overview.SLA.FirstResponseBreached,
			ResolutionBreached:      overview.SLA.ResolutionBreached,
			AvgFirstResponseSeconds: overview.SLA.AvgFirstResponseSeconds,
			AvgResolutionSeconds:    overview.SLA.AvgResolutionSeconds,
		},
	}
}
