package sqlinline

// Summary columns in scan order.
const QSelectDailySummary = `--sql 06fefd26-2630-43f6-a437-ca838bfc8325
select
  usage_date,
  stream_scope_id,
  unique_visitor_count,
  page_view_count,
  stream_view_count,
  stream_viewer_count,
  stream_contributor_count,
  message_count,
  avg_response_time,
  is_weekday,
  created_at
from daily_usage_summary
where usage_date = $1::date
  and stream_scope_id is not distinct from $2::bigint;
`

// Relies on the partial unique indexes on (usage_date) and
// (usage_date, stream_scope_id); a duplicate affects zero rows.
const QInsertDailySummary = `--sql a18d38a9-4869-4906-a45f-3a9d3bf67057
insert into daily_usage_summary (
  usage_date,
  stream_scope_id,
  unique_visitor_count,
  page_view_count,
  stream_view_count,
  stream_viewer_count,
  stream_contributor_count,
  message_count,
  avg_response_time,
  is_weekday,
  created_at
) values ($1::date, $2::bigint, $3, $4, $5, $6, $7, $8, $9, $10, now())
on conflict do nothing;
`

const QListDailySummaries = `--sql a7485c69-c311-40a6-afd9-079797f7f0a3
select
  usage_date,
  stream_scope_id,
  unique_visitor_count,
  page_view_count,
  stream_view_count,
  stream_viewer_count,
  stream_contributor_count,
  message_count,
  avg_response_time,
  is_weekday,
  created_at
from daily_usage_summary
where usage_date between $1::date and $2::date
  and (not $3::boolean or stream_scope_id is not distinct from $4::bigint)
order by usage_date asc, stream_scope_id asc nulls first;
`
