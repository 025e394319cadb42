package sqlinline

const QInsertUsageMetric = `--sql aabe0774-cba2-4ada-a11d-824e194b3498
insert into usage_metric (id, person_id, is_page_view, is_stream_view, stream_scope_id, country, created_at)
values ($1::uuid, $2::bigint, $3::boolean, $4::boolean, $5::bigint, nullif($6::text, ''), now());
`

// $1 is the retention window in days.
const QDeleteOldUsageMetrics = `--sql 4ba2bf06-a2be-454b-900e-b649550c9e2f
delete from usage_metric
where created_at < current_date - ($1::int * interval '1 day');
`
